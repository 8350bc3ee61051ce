package auth

import (
	"context"
	"time"
)

// DefaultCheckInterval is how often the background checker re-evaluates the
// session when no interval is configured.
const DefaultCheckInterval = 30 * time.Second

// StartSessionChecker runs a background loop that re-evaluates session
// validity every interval, publishing expiry transitions to subscribers.
// The loop stops when ctx is cancelled.
func (m *Manager) StartSessionChecker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCheckInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.CheckSessionValidity()
			}
		}
	}()
}
