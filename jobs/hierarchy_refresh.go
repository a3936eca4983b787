package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sentinel-auth/sentinel/internal/hierarchy"
)

// HierarchyRefreshJob rebuilds the identity hierarchy snapshot so resolutions
// observe upstream corporation and alliance moves without waiting for the
// TTL to lapse.
type HierarchyRefreshJob struct {
	Provider *hierarchy.Provider
	Logger   *slog.Logger
}

// NewHierarchyRefreshJob wires dependencies for the refresh handler.
func NewHierarchyRefreshJob(provider *hierarchy.Provider, logger *slog.Logger) *HierarchyRefreshJob {
	return &HierarchyRefreshJob{Provider: provider, Logger: logger}
}

// Handle processes hierarchy refresh tasks.
func (j *HierarchyRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Provider == nil {
		return errors.New("hierarchy refresh: handler not configured")
	}
	start := time.Now()
	if _, err := j.Provider.Refresh(ctx); err != nil {
		if j.Logger != nil {
			j.Logger.Error("hierarchy refresh", slog.Any("error", err))
		}
		return err
	}
	if j.Logger != nil {
		j.Logger.Info("hierarchy snapshot refreshed", slog.Duration("elapsed", time.Since(start)))
	}
	return nil
}
