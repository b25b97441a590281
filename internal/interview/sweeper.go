package interview

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = time.Minute

// StartSweeper runs a background goroutine that periodically closes sessions
// with no activity for the given TTL. Disconnects normally remove sessions
// immediately; the sweeper is a leak guard for connections whose teardown
// was never observed.
func StartSweeper(ctx context.Context, store *Store, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepIdleSessions(store, ttl)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepIdleSessions(store *Store, ttl time.Duration) {
	idle := store.Idle(ttl)
	if len(idle) == 0 {
		return
	}

	for _, s := range idle {
		slog.Warn("Closing idle interview session",
			"session_id", s.ID(),
			"last_activity", s.LastActivity(),
		)
		s.Close()
		store.Delete(s.ID())
	}
}
