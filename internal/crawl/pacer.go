package crawl

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/MichaelPico/job-offer-analyzer/internal/config"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type RealSleeper struct{}

func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer issues the randomized pauses of a crawl: before every listing page,
// before every detail page, and the longer back-off after a failed page.
type Pacer struct {
	sleeper Sleeper
	page    config.DelayRange
	detail  config.DelayRange
	backoff config.DelayRange
}

func NewPacer(sleeper Sleeper, cfg config.Crawl) *Pacer {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &Pacer{
		sleeper: sleeper,
		page:    cfg.PageDelay,
		detail:  cfg.DetailDelay,
		backoff: cfg.ErrorBackoff,
	}
}

func (p *Pacer) BeforePage(ctx context.Context) error {
	return p.sleeper.Sleep(ctx, RandomDelay(p.page))
}

func (p *Pacer) BeforeDetail(ctx context.Context) error {
	return p.sleeper.Sleep(ctx, RandomDelay(p.detail))
}

func (p *Pacer) AfterError(ctx context.Context) error {
	return p.sleeper.Sleep(ctx, RandomDelay(p.backoff))
}

// RandomDelay picks a duration in [r.Min, r.Max].
func RandomDelay(r config.DelayRange) time.Duration {
	if r.Max <= r.Min {
		return max(r.Min, 0)
	}
	return r.Min + rand.N(r.Max-r.Min+1)
}
