package session

import (
	"context"
	"log/slog"
	"time"
)

// RunJanitor calls Cleanup every interval until ctx is done.
// A non-positive interval falls back to Config.CleanupInterval.
func (r *Registry) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.cfg.CleanupInterval
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	r.log.Info("session.janitor.start", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			r.log.Info("session.janitor.stop")
			return
		case <-t.C:
			removed := r.Cleanup()
			if removed > 0 {
				r.log.Info("session.cleanup",
					slog.Int("removed", removed),
					slog.Int("remaining", r.Len()),
				)
			}
		}
	}
}
