package activity

import (
	"context"
	"log/slog"
	"time"
)

// SessionCleaner removes expired sessions and reports how many it deleted.
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

// RunJanitor deletes expired sessions every interval until ctx is cancelled.
// It sweeps once immediately so a restart does not wait a full interval.
func RunJanitor(ctx context.Context, sessions SessionCleaner, interval time.Duration) {
	sweep := func() {
		n, err := sessions.CleanExpiredSessions(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("failed to clean expired sessions", "error", err)
			}
			return
		}
		if n > 0 {
			slog.Info("cleaned expired sessions", "count", n)
		}
	}

	sweep()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
