// Package sweeper runs the cron-driven purge of expired keys. Cooldown
// tokens expire lazily (checked on read), so the sweeper exists to keep the
// store from accumulating tombstoned ratelimit keys between reads.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/VulcanWM/threadofclues/pkg/config"
	"github.com/VulcanWM/threadofclues/pkg/logger"
	"github.com/VulcanWM/threadofclues/pkg/store"
)

// defaultCron sweeps every five minutes; cooldowns last one.
const defaultCron = "*/5 * * * *"

// Start launches the sweep scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg config.SweeperConfig, kv *store.Pebble) (context.CancelFunc, error) {
	if !cfg.Enabled || cfg.Paused {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}

	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = defaultCron
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cfg.Cron)
	}

	logger.Info("sweeper_enabled", "cron", cronExpr)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr, kv)
	return cancel, nil
}

// RunOnce performs a single sweep. Exposed for tests and admin triggers.
func RunOnce(kv *store.Pebble) error {
	start := time.Now()
	n, err := kv.PurgeExpired()
	if err != nil {
		return fmt.Errorf("purge expired keys: %w", err)
	}
	logger.Info("sweep_complete", "purged", n, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// runScheduler uses gronx to compute the next tick for the configured cron
// expression and sleeps until that time.
func runScheduler(ctx context.Context, cronExpr string, kv *store.Pebble) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			// fallback sleep then retry
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				logger.Info("sweeper_stopping")
				return
			}
			continue
		}

		wait := time.Until(next)
		if wait <= 0 {
			if err := RunOnce(kv); err != nil {
				logger.Error("sweep_failed", "error", err)
			}
			// small sleep to avoid a tight loop on due-now ticks
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				logger.Info("sweeper_stopping")
				return
			}
			continue
		}

		select {
		case <-time.After(wait):
			if err := RunOnce(kv); err != nil {
				logger.Error("sweep_failed", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}
