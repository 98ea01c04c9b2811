package photomod

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marcucus/goldwen-backend/internal/services/moderation"
)

// pendingLister feeds the job photos whose verdict never landed, usually
// because the process died between upload and classification.
type pendingLister interface {
	ListPendingOlderThan(ctx context.Context, olderThan time.Time) ([]int64, error)
}

type moderator interface {
	ModeratePhoto(ctx context.Context, photoID int64) (moderation.PhotoResult, error)
}

// Job sweeps stuck pending photos and re-runs moderation on them. Safe to
// run repeatedly: moderation is a pure re-evaluation of current state.
type Job struct {
	photos    pendingLister
	moderator moderator
	minAge    time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(photos pendingLister, mod moderator, minAge time.Duration, logger *zap.Logger) *Job {
	if minAge <= 0 {
		minAge = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		photos:    photos,
		moderator: mod,
		minAge:    minAge,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.photos == nil || j.moderator == nil {
		return nil
	}

	cutoff := j.now().Add(-j.minAge)
	ids, err := j.photos.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stuck pending photos: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	moderated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := j.moderator.ModeratePhoto(ctx, id); err != nil {
			j.logger.Warn("sweep moderation failed", zap.Int64("photo_id", id), zap.Error(err))
			continue
		}
		moderated++
	}

	j.logger.Info("pending photo sweep completed",
		zap.Int("stuck", len(ids)), zap.Int("moderated", moderated))
	return nil
}
