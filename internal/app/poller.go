package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/breate/internal/engine"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 30 * time.Second
)

// Loader is the slice of an engine the poller drives.
type Loader interface {
	Name() string
	Load(ctx context.Context) (engine.View, error)
}

// StartPoller launches a background goroutine that reloads every screen at a
// fixed cadence, backing off while loads keep failing. The returned channel is
// closed once the goroutine exits after ctx is cancelled.
func StartPoller(ctx context.Context, screens []Loader, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("poller")

	done := make(chan struct{})
	go func() {
		defer close(done)

		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if pollOnce(ctx, screens, logger) {
				failures = 0
			} else {
				failures++
			}
			wait := calculateBackoff(failures, interval)
			if failures > 0 {
				logger.Warn("poll failed, backing off",
					zap.Int("consecutive_failures", failures),
					zap.Duration("next_poll", wait))
			}
			timer.Reset(wait)
		}
	}()
	return done
}

// pollOnce reloads each screen and reports whether all of them succeeded.
// Loads overtaken by a newer settle or by shutdown do not count as failures.
func pollOnce(ctx context.Context, screens []Loader, logger *zap.Logger) bool {
	ok := true
	for _, s := range screens {
		if ctx.Err() != nil {
			return ok
		}
		_, err := s.Load(ctx)
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrSuperseded), errors.Is(err, engine.ErrClosed), errors.Is(err, context.Canceled):
			logger.Debug("poll skipped", zap.String("screen", s.Name()), zap.Error(err))
		default:
			ok = false
			logger.Warn("poll load failed", zap.String("screen", s.Name()), zap.Error(err))
		}
	}
	return ok
}

// calculateBackoff doubles the interval per consecutive failure, capped at
// maxBackoff or the interval itself when that is longer.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	limit := maxBackoff
	if interval > limit {
		limit = interval
	}
	if failures > 30 {
		return limit
	}
	backoff := interval << failures
	if backoff <= 0 || backoff > limit {
		return limit
	}
	return backoff
}
