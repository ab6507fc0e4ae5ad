// Package sweep periodically removes expired entries from the KV store and
// the translation cache.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper drops expired entries.
type Sweeper interface {
	SweepExpired(ctx context.Context) error
}

// Start sweeps every target once per interval. It blocks until the context is
// cancelled.
func Start(ctx context.Context, interval time.Duration, targets ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			Once(ctx, targets...)
		}
	}
}

// Once sweeps every target a single time. Failures are logged and do not stop
// the remaining targets.
func Once(ctx context.Context, targets ...Sweeper) {
	for _, t := range targets {
		if t == nil {
			continue
		}
		if err := t.SweepExpired(ctx); err != nil {
			log.Debug().Err(err).Msg("kv sweep failed")
		}
	}
}
