package crawl

import (
	"context"
	"log/slog"

	"github.com/MichaelPico/job-offer-analyzer/internal/models"
)

// Result is what one orchestrated crawl produced.
type Result struct {
	Board     string
	Positions []PositionStats
	Admitted  int
	TokenCost int
	//Records is the whole collection, including seeded and other boards' records
	Records []models.JobRecord
}

// Orchestrator runs every configured position of one board in order.
type Orchestrator struct {
	driver    *Driver
	positions []string
	logger    *slog.Logger
}

func NewOrchestrator(driver *Driver, positions []string, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		driver:    driver,
		positions: append([]string(nil), positions...),
		logger:    logger,
	}
}

// Run crawls positions until they are exhausted or the global quota is met.
// Records admitted before a cancellation stay in state and in the returned
// Result, which is always non-nil; the error is ctx.Err().
func (o *Orchestrator) Run(ctx context.Context, state *State) (*Result, error) {
	result := &Result{Board: o.driver.board.Name()}

	for _, position := range o.positions {
		if ctx.Err() != nil {
			break
		}
		if state.QuotaReached() {
			o.logger.Info("🛑 global job quota reached, stopping", "board", result.Board, "admitted", state.AdmittedThisRun())
			break
		}

		o.logger.Info("🔍 starting position", "board", result.Board, "position", position)
		stats := o.driver.Run(ctx, position, state)
		result.Positions = append(result.Positions, stats)
		result.Admitted += stats.Admitted
		result.TokenCost += stats.TokenCost
	}

	result.Records = state.Records()
	o.logger.Info("📦 crawl finished",
		"board", result.Board,
		"admitted", result.Admitted,
		"total_records", len(result.Records),
		"tokens", result.TokenCost,
	)
	return result, ctx.Err()
}
