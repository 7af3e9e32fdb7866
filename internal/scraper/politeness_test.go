package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPauseWaitsForDelay(t *testing.T) {
	t.Parallel()

	start := time.Now()
	Pause(context.Background(), 20*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPauseReturnsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	Pause(ctx, time.Minute)
	assert.Less(t, time.Since(start), time.Second)
}

func TestPauseZeroDelay(t *testing.T) {
	t.Parallel()

	start := time.Now()
	Pause(context.Background(), 0)
	assert.Less(t, time.Since(start), time.Second)
}
