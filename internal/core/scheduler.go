package core

// scheduler.go runs background maintenance. Today that is audit retention:
// entries older than the retention window are purged from the sink on a
// fixed interval. Failures are logged and the loop carries on.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig controls the audit retention job.
type RetentionConfig struct {
	RetentionDays int           // default 90
	CheckInterval time.Duration // default 24h
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler purges old audit entries once immediately and
// then every CheckInterval until ctx is cancelled. It blocks; run it in a
// goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	if s.audit == nil {
		return
	}

	start := time.Now()
	cutoff := start.AddDate(0, 0, -cfg.RetentionDays)

	purged, err := s.audit.Purge(ctx, cutoff)
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return
	}
	slog.Info("audit purge completed",
		"entries_purged", purged,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
