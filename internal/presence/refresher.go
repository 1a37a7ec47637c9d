package presence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cardsmith/profilecard/internal/session"
)

// ProfileRefresher periodically re-fetches the viewer's own profile so
// displayed identity fields stay fresh independently of presence events.
type ProfileRefresher struct {
	sessions *session.Manager
	interval time.Duration
	logger   *zap.Logger
}

// NewProfileRefresher creates a refresher with the given interval.
func NewProfileRefresher(sessions *session.Manager, interval time.Duration, logger *zap.Logger) *ProfileRefresher {
	return &ProfileRefresher{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes the profile every interval until ctx is cancelled. Fetch
// failures are transient by definition and never abort the loop.
func (r *ProfileRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.sessions.Refresh(ctx); err != nil {
				r.logger.Debug("profile refresh failed", zap.Error(err))
			}
		}
	}
}
