// package formatter renders snx results as SRT subtitles, CSV and tables
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// DefaultSRTFile is the file name used when no output path is given.
const DefaultSRTFile = "output.srt"

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm). Every unit is floored.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}

	whole := math.Floor(seconds)
	h := int(whole) / 3600
	m := (int(whole) % 3600) / 60
	s := int(whole) % 60
	ms := int(math.Floor((seconds - whole) * 1000))

	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ExportToSRT converts aligned lyrics to SRT cues numbered from 1 and separated by a blank line.
// Newlines inside a lyric become spaces.
func ExportToSRT(lines []models.LyricLine) []byte {
	cues := make([]string, 0, len(lines))
	for i, line := range lines {
		text := strings.TrimSpace(strings.ReplaceAll(line.Text, "\n", " "))
		cues = append(cues, fmt.Sprintf("%d\n%s --> %s\n%s\n", i+1, FormatTimestamp(line.StartS), FormatTimestamp(line.EndS), text))
	}
	return []byte(strings.Join(cues, "\n"))
}

// WriteSRTExport writes lyrics to path as SRT.
//
// Defaults to [DefaultSRTFile] as the filename.
func WriteSRTExport(lines []models.LyricLine, path string) (string, error) {
	if path == "" {
		path = DefaultSRTFile
	}

	if err := os.WriteFile(path, ExportToSRT(lines), 0644); err != nil {
		return "", fmt.Errorf("failed to write SRT file: %w", err)
	}
	return path, nil
}

// StatKeys returns the sorted union of stat names across scores.
func StatKeys(scores []models.HandleScore) []string {
	seen := map[string]struct{}{}
	for _, s := range scores {
		for k := range s.Stats {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatStat renders a stats value. Whole numbers print without a decimal point.
func FormatStat(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1e15 {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	case string:
		return n
	default:
		data, err := shared.MarshalJSON(n, false)
		if err != nil {
			return fmt.Sprint(n)
		}
		return string(data)
	}
}

// ExportScoresToCSV converts scores to CSV with a handle column followed by one column per stat.
// Handles whose lookup failed have empty stat cells.
func ExportScoresToCSV(scores []models.HandleScore) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	keys := StatKeys(scores)
	if err := writer.Write(append([]string{"handle"}, keys...)); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range scores {
		record := []string{s.Handle}
		for _, k := range keys {
			record = append(record, FormatStat(s.Stats[k]))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// WriteScoresCSV writes scores to path as CSV.
func WriteScoresCSV(scores []models.HandleScore, path string) error {
	data, err := ExportScoresToCSV(scores)
	if err != nil {
		return fmt.Errorf("failed to generate CSV: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}
