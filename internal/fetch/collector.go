package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/snx/internal/shared"
)

// sleep is swapped in tests to observe pacing without waiting.
var sleep = sleepContext

// PageSpec describes how to sweep one listing endpoint.
type PageSpec[T any] struct {
	Name       string                // used in logs and sweep records
	TotalPath  string                // request yielding the total count
	TotalField string                // top-level JSON field holding the total
	PagePath   func(page int) string // path for a page number
	FirstPage  int                   // 0 or 1, whichever the endpoint uses
	PageSize   int
	Delay      time.Duration // pause between pages, never after the last
	Skip       int           // leading pages that are not fetched

	// Extract maps one page's body to records.
	Extract func(body []byte) ([]T, error)

	// Each, when set, is called after a page's items were added. Returning [ErrStop] ends the sweep.
	Each func(ctx context.Context, page int, items []T) error

	Logger *log.Logger
}

// PageFailure records a page whose contribution was skipped.
type PageFailure struct {
	Page int
	Err  error
}

// Result summarizes a sweep.
type Result struct {
	Name       string
	Endpoint   string
	TotalCount int
	Pages      int
	Skipped    int
	Succeeded  int
	Failed     []PageFailure
	Stopped    bool // ended early by [ErrStop]
	Items      int  // accumulator size when the sweep ended
	StartedAt  time.Time
	FinishedAt time.Time
}

// Complete reports whether every page was fetched.
func (r *Result) Complete() bool {
	return r != nil && len(r.Failed) == 0 && !r.Stopped && r.Succeeded == r.Pages-r.Skipped
}

// PageCount returns ceil(total/pageSize), or zero for a non-positive total.
func PageCount(total float64, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return int(math.Ceil(total / float64(pageSize)))
}

// TotalFromBody reads a top-level numeric field from a JSON object.
//
// Missing, null, non-numeric, non-finite and negative values yield [ErrInvalidTotal].
func TotalFromBody(body []byte, field string) (float64, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return 0, fmt.Errorf("%w: response is not an object: %v", ErrInvalidTotal, err)
	}

	raw, ok := fields[field]
	if !ok || string(raw) == "null" {
		return 0, fmt.Errorf("%w: %q missing", ErrInvalidTotal, field)
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("%w: %q is %s", ErrInvalidTotal, field, raw)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is %q", ErrInvalidTotal, field, s)
		}
		n = parsed
	}

	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, fmt.Errorf("%w: %q is %v", ErrInvalidTotal, field, n)
	}
	return n, nil
}

// Collect sweeps every page described by spec into acc.
//
// The total request must succeed and yield a valid total; otherwise nothing is fetched and an
// error is returned. Individual page failures are logged and recorded in [Result.Failed] and the
// sweep moves on. Context cancellation ends the sweep with the partial [Result] and ctx.Err().
func Collect[T any](ctx context.Context, doer Doer, acc Accumulator[T], spec PageSpec[T]) (*Result, error) {
	if spec.PagePath == nil || spec.Extract == nil || spec.PageSize <= 0 {
		return nil, fmt.Errorf("%w: page spec %q needs PagePath, Extract and a positive PageSize", shared.ErrInvalidInput, spec.Name)
	}

	logger := spec.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "sweep", spec.Name)

	result := &Result{Name: spec.Name, Endpoint: spec.TotalPath, StartedAt: time.Now()}

	first, err := doer.Do(ctx, Get(spec.TotalPath))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch total: %w", spec.Name, err)
	}

	total, err := TotalFromBody(first.Body, spec.TotalField)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Name, err)
	}

	result.TotalCount = int(total)
	result.Pages = PageCount(total, spec.PageSize)
	result.Skipped = min(max(spec.Skip, 0), result.Pages)
	logger.Info("starting sweep", "total", result.TotalCount, "pages", result.Pages, "skipped", result.Skipped)

	for i := result.Skipped; i < result.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return finish(result, acc), err
		}

		page := spec.FirstPage + i
		err := collectPage(ctx, doer, acc, spec, page)

		switch {
		case errors.Is(err, ErrStop):
			result.Succeeded++
			result.Stopped = true
			logger.Info("sweep stopped early", "page", page)
			return finish(result, acc), nil
		case ctx.Err() != nil:
			return finish(result, acc), ctx.Err()
		case err != nil:
			logger.Warn("page failed, skipping", "page", page, "error", err)
			result.Failed = append(result.Failed, PageFailure{Page: page, Err: err})
		default:
			result.Succeeded++
			logger.Debug("page collected", "page", page, "collected", acc.Len())
		}

		if i < result.Pages-1 {
			if err := sleep(ctx, spec.Delay); err != nil {
				return finish(result, acc), err
			}
		}
	}

	finish(result, acc)
	logger.Info("sweep finished", "succeeded", result.Succeeded, "failed", len(result.Failed), "items", result.Items)
	return result, nil
}

func collectPage[T any](ctx context.Context, doer Doer, acc Accumulator[T], spec PageSpec[T], page int) error {
	resp, err := doer.Do(ctx, Get(spec.PagePath(page)))
	if err != nil {
		return err
	}

	items, err := spec.Extract(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to extract page %d: %v", shared.ErrAPIRequest, page, err)
	}

	acc.Add(items...)
	if spec.Each != nil {
		return spec.Each(ctx, page, items)
	}
	return nil
}

func finish[T any](r *Result, acc Accumulator[T]) *Result {
	r.Items = acc.Len()
	r.FinishedAt = time.Now()
	return r
}
