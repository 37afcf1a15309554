package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/snx/internal/formatter"
	"github.com/desertthunder/snx/internal/shared"
)

// LyricsResult describes a written SRT file.
type LyricsResult struct {
	ClipID string
	Path   string
	Cues   int
}

// CommentHandles returns the sorted, distinct user handles found anywhere in a clip's comments.
func (e *Engine) CommentHandles(ctx context.Context, clipID string) ([]string, error) {
	clipID = strings.TrimSpace(clipID)
	if clipID == "" {
		return nil, fmt.Errorf("%w: clip id is required", shared.ErrMissingArgument)
	}

	tree, err := e.suno.Comments(ctx, clipID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", clipID, err)
	}
	return CollectHandles(tree), nil
}

// CollectHandles walks a decoded JSON value and returns every string stored under a
// "user_handle" key at any depth, sorted and without duplicates.
func CollectHandles(v any) []string {
	seen := map[string]struct{}{}
	walkHandles(v, seen)

	handles := make([]string, 0, len(seen))
	for h := range seen {
		handles = append(handles, h)
	}
	sort.Strings(handles)
	return handles
}

func walkHandles(v any, seen map[string]struct{}) {
	switch node := v.(type) {
	case map[string]any:
		for key, child := range node {
			if h, ok := child.(string); ok && key == "user_handle" {
				if h != "" {
					seen[h] = struct{}{}
				}
				continue
			}
			walkHandles(child, seen)
		}
	case []any:
		for _, child := range node {
			walkHandles(child, seen)
		}
	}
}

// LyricsSRT writes a clip's aligned lyrics to path as SRT. An empty path uses
// [formatter.DefaultSRTFile].
func (e *Engine) LyricsSRT(ctx context.Context, clipID, path string) (*LyricsResult, error) {
	clipID = strings.TrimSpace(clipID)
	if clipID == "" {
		return nil, fmt.Errorf("%w: clip id is required", shared.ErrMissingArgument)
	}

	lines, err := e.suno.AlignedLyrics(ctx, clipID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lyrics for %s: %w", clipID, err)
	}

	written, err := formatter.WriteSRTExport(lines, path)
	if err != nil {
		return nil, err
	}

	e.logger.Info("lyrics exported", "clip", clipID, "path", written, "cues", len(lines))
	return &LyricsResult{ClipID: clipID, Path: written, Cues: len(lines)}, nil
}

// ParentClip returns the parent lookup for a clip.
func (e *Engine) ParentClip(ctx context.Context, clipID string) (json.RawMessage, error) {
	clipID = strings.TrimSpace(clipID)
	if clipID == "" {
		return nil, fmt.Errorf("%w: clip id is required", shared.ErrMissingArgument)
	}
	return e.suno.ParentClip(ctx, clipID)
}

// HideCreator hides a creator's clips or hooks. contentType defaults to CLIP.
func (e *Engine) HideCreator(ctx context.Context, contentType, handle string) (json.RawMessage, error) {
	return e.suno.HideCreator(ctx, contentType, handle)
}

// UserHooks returns one page of a user's hooks.
func (e *Engine) UserHooks(ctx context.Context, handle string, start, size int) (json.RawMessage, error) {
	handle = shared.NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: user handle is required", shared.ErrMissingArgument)
	}
	if start < 0 || size <= 0 {
		return nil, fmt.Errorf("%w: start must be >= 0 and size positive", shared.ErrInvalidArgument)
	}
	return e.suno.UserHooks(ctx, handle, start, size)
}
