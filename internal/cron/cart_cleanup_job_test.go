package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/storefrontlabs/storefront-backend/pkg/logger"
)

func TestCartCleanupJobDeletesStaleItems(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeCartCleanupRepo{deletedRows: 17}
	job := newCartCleanupJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-cartRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestCartCleanupJobHonorsRetentionOverride(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeCartCleanupRepo{}
	job := newCartCleanupJob(t, repo, 7)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.UTC().Add(-7 * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
}

func TestCartCleanupJobPropagatesErrors(t *testing.T) {
	repo := &fakeCartCleanupRepo{err: errors.New("boom")}
	job := newCartCleanupJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCartCleanupJob(t *testing.T, repo *fakeCartCleanupRepo, retention int) *cartCleanupJob {
	t.Helper()
	jobIface, err := NewCartCleanupJob(CartCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
		Retention:  retention,
	})
	if err != nil {
		t.Fatalf("NewCartCleanupJob: %v", err)
	}
	job, ok := jobIface.(*cartCleanupJob)
	if !ok {
		t.Fatalf("expected cartCleanupJob, got %T", jobIface)
	}
	return job
}

type fakeCartCleanupRepo struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakeCartCleanupRepo) DeleteItemsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}
