package observability

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RetentionConfig specifies per-table retention in days. Zero disables
// cleanup for that table.
type RetentionConfig struct {
	HeartbeatsDays int
	CrawlLogDays   int
	RunVacuumAfter bool
}

// DefaultRetention keeps a week of heartbeats and a month of crawl log.
func DefaultRetention() RetentionConfig {
	return RetentionConfig{HeartbeatsDays: 7, CrawlLogDays: 30}
}

// Cleanup deletes rows exceeding the retention thresholds. Both tables
// store epoch-millisecond timestamps.
func Cleanup(ctx context.Context, db *sql.DB, cfg RetentionConfig) error {
	now := time.Now().UnixMilli()
	const dayMS = int64(24 * time.Hour / time.Millisecond)

	targets := []struct {
		table  string
		column string
		days   int
	}{
		{"worker_heartbeats", "timestamp", cfg.HeartbeatsDays},
		{"crawl_log", "created_at", cfg.CrawlLogDays},
	}

	for _, t := range targets {
		if t.days <= 0 {
			continue
		}
		cutoff := now - int64(t.days)*dayMS
		q := fmt.Sprintf("DELETE FROM %s WHERE %s < ?", t.table, t.column)
		if _, err := db.ExecContext(ctx, q, cutoff); err != nil {
			return fmt.Errorf("cleanup %s: %w", t.table, err)
		}
	}

	if cfg.RunVacuumAfter {
		if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
			return fmt.Errorf("vacuum: %w", err)
		}
	}
	return nil
}

// StartJanitor runs Cleanup immediately and then once per day until the
// context is cancelled. Errors are reported through report (may be nil).
func StartJanitor(ctx context.Context, db *sql.DB, cfg RetentionConfig, report func(error)) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			if err := Cleanup(ctx, db, cfg); err != nil && report != nil {
				report(err)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
