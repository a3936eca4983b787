package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/sentinel-auth/sentinel/internal/affiliation"
)

// AffiliationInvalidateJob drops cached resolutions for the tags named in
// the task payload.
type AffiliationInvalidateJob struct {
	Cache  affiliation.Cache
	Logger *slog.Logger
}

// NewAffiliationInvalidateJob wires dependencies for the invalidation handler.
func NewAffiliationInvalidateJob(cache affiliation.Cache, logger *slog.Logger) *AffiliationInvalidateJob {
	return &AffiliationInvalidateJob{Cache: cache, Logger: logger}
}

// Handle processes affiliation invalidation tasks.
func (j *AffiliationInvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Cache == nil {
		return errors.New("affiliation invalidate: handler not configured")
	}
	var payload AffiliationInvalidatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if len(payload.Tags) == 0 {
		return nil
	}
	if err := j.Cache.InvalidateTags(ctx, payload.Tags...); err != nil {
		if j.Logger != nil {
			j.Logger.Error("affiliation invalidate", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("affiliation cache invalidated", slog.Int("tags", len(payload.Tags)))
	}
	return nil
}
