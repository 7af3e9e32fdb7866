package scraper

import (
	"context"
	"time"
)

// Pause blocks for delay or until the context is done, whichever comes
// first. It is the default PauseFunc used between page fetches and for
// retry backoff waits.
func Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
