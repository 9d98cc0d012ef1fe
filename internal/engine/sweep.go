package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"tecl-trader/internal/config"
	"tecl-trader/internal/performance"
)

// SweepVariant is one parameter set to replay in a sweep.
type SweepVariant struct {
	Label    string
	Strategy config.StrategyConfig
}

// SweepOutcome pairs a variant with its backtest result.
type SweepOutcome struct {
	Label  string
	Result *BacktestResult
	Err    error
}

// Sweep replays the same price history under several parameter sets on a
// worker pool. Variants are independent, so order of completion does not
// matter; outcomes come back in variant order.
func Sweep(ctx context.Context, logger zerolog.Logger, variants []SweepVariant, data BacktestConfig) []SweepOutcome {
	outcomes := make([]SweepOutcome, len(variants))

	pool := performance.NewWorkerPool(0)
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	for i, v := range variants {
		i, v := i, v
		run := func() {
			defer wg.Done()
			eng := New(v.Strategy, logger.With().Str("variant", v.Label).Logger())
			result, err := eng.Backtest(ctx, data)
			outcomes[i] = SweepOutcome{Label: v.Label, Result: result, Err: err}
		}

		wg.Add(1)
		if !pool.Submit(run) {
			run()
		}
	}
	wg.Wait()

	return outcomes
}
