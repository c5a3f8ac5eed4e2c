package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/storefrontlabs/storefront-backend/pkg/logger"
	"github.com/storefrontlabs/storefront-backend/pkg/metrics"
)

const cartRetentionDays = 3

type cartCleanupRepo interface {
	DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CartCleanupJobParams configure the stale cart item sweep.
type CartCleanupJobParams struct {
	Logger     *logger.Logger
	Repository cartCleanupRepo
	Metrics    *metrics.CronJobMetrics
	Retention  int
}

// NewCartCleanupJob removes cart items added before the retention window.
func NewCartCleanupJob(params CartCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = cartRetentionDays
	}
	return &cartCleanupJob{
		logg:      params.Logger,
		repo:      params.Repository,
		metrics:   params.Metrics,
		retention: retention,
		now:       time.Now,
	}, nil
}

type cartCleanupJob struct {
	logg      *logger.Logger
	repo      cartCleanupRepo
	metrics   *metrics.CronJobMetrics
	retention int
	now       func() time.Time
}

func (j *cartCleanupJob) Name() string { return "cart-cleanup" }

func (j *cartCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.repo.DeleteItemsOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("cart cleanup: %w", err)
	}
	j.metrics.AddRowsAffected(j.Name(), deleted)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "cart cleanup complete")
	return nil
}
