package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/snx/internal/models"
	"github.com/desertthunder/snx/internal/shared"
)

// DefaultTrendingSize is the number of users requested from the trending search.
const DefaultTrendingSize = 400

// Scores looks up creator stats for each handle.
//
// Lookup i starts i*ScoreStagger after the call. Results keep the input order. A failed lookup
// leaves Stats nil and sets Err without failing the call. The last_login field is removed from
// every stats object.
func (e *Engine) Scores(ctx context.Context, progress chan<- ProgressUpdate, handles []string) []models.HandleScore {
	handles = shared.NormalizeHandles(handles)
	scores := make([]models.HandleScore, len(handles))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, handle := range handles {
		wg.Add(1)
		go func(i int, handle string) {
			defer wg.Done()

			score := models.HandleScore{Handle: handle}
			if err := e.sleep(ctx, time.Duration(i)*e.opts.ScoreStagger); err != nil {
				score.Err = err
			} else {
				score = e.scoreHandle(ctx, handle)
			}
			scores[i] = score

			mu.Lock()
			done++
			e.sendProgress(progress, handleUpdate(Score, done, len(handles), handle, score.Err))
			mu.Unlock()
		}(i, handle)
	}
	wg.Wait()

	return scores
}

func (e *Engine) scoreHandle(ctx context.Context, handle string) models.HandleScore {
	score := models.HandleScore{Handle: handle}
	logger := shared.WithLogger(e.logger, "task", "score", "handle", handle)

	userID, err := e.suno.UserID(ctx, handle)
	if err != nil {
		logger.Warn("failed to resolve user id", "error", err)
		score.Err = fmt.Errorf("resolve %s: %w", handle, err)
		return score
	}
	score.UserID = userID

	stats, err := e.suno.CreatorStats(ctx, userID)
	if err != nil {
		logger.Warn("failed to fetch creator stats", "error", err)
		score.Err = fmt.Errorf("stats for %s: %w", handle, err)
		return score
	}

	delete(stats, "last_login")
	score.Stats = stats
	return score
}

// TrendingUsers returns the trending users ranking. A non-positive size uses [DefaultTrendingSize].
func (e *Engine) TrendingUsers(ctx context.Context, size int) ([]models.TrendingUser, error) {
	if size <= 0 {
		size = DefaultTrendingSize
	}
	users, err := e.suno.TrendingUsers(ctx, size)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trending users: %w", err)
	}
	return users, nil
}
