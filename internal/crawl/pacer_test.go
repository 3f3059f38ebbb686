package crawl

import (
	"context"
	"testing"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRandomDelay(t *testing.T) {
	r := config.DelayRange{Min: 2 * time.Second, Max: 5 * time.Second}
	for i := 0; i < 200; i++ {
		d := RandomDelay(r)
		assert.GreaterOrEqual(t, d, r.Min)
		assert.LessOrEqual(t, d, r.Max)
	}
	assert.Equal(t, time.Second, RandomDelay(config.DelayRange{Min: time.Second, Max: time.Second}))
	assert.Equal(t, time.Duration(0), RandomDelay(config.DelayRange{}))
}

func TestRealSleeper_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := RealSleeper{}.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRealSleeper_Waits(t *testing.T) {
	start := time.Now()
	assert.NoError(t, RealSleeper{}.Sleep(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
