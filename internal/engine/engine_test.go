package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tecl-trader/internal/config"
	"tecl-trader/internal/models"
	"tecl-trader/internal/statestore"
)

// testStrategy shrinks the windows so scenarios fit in a handful of bars.
func testStrategy() config.StrategyConfig {
	cfg := config.DefaultStrategy()
	cfg.SMAWindow = 3
	cfg.WMAWindow = 2
	cfg.WMALag = 1
	return cfg
}

func testBars(opens []float64) []models.Bar {
	base := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(opens))
	for i, o := range opens {
		bars[i] = models.Bar{Date: base.AddDate(0, 0, i), Open: o, High: o, Low: o, Close: o}
	}
	return bars
}

// Walks a hand-computed sequence: warmup, immediate buy, exit at target,
// cooldown, back to no signal.
func TestStepScenario(t *testing.T) {
	ctx := context.Background()
	eng := New(testStrategy(), zerolog.Nop())

	primary := testBars([]float64{100, 100, 100, 60, 64, 30, 100})
	secondary := testBars([]float64{20, 20, 20, 20, 20, 20, 20})

	state := models.NewLedgerState(decimal.NewFromInt(10000))

	// Day 2: first day with enough history, no signal.
	res, err := eng.StepAt(ctx, state, primary, secondary, 2)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, models.ActionHold, res.Decision.Action)
	assert.Equal(t, models.ReasonNoSignal, res.Decision.Reason)
	assert.Equal(t, primary[2].Date, res.State.LastProcessed)
	state = res.State

	// Day 3: open 60 against SMA(100,100,60)=86.67, below the 0.75 line.
	res, err = eng.StepAt(ctx, state, primary, secondary, 3)
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	assert.Equal(t, models.ActionBuy, res.Event.Action)
	assert.Equal(t, models.ReasonImmediateBuy, res.Event.Reason)
	assert.Equal(t, int64(158), res.Event.ShareCount) // floor(9500/60)
	assert.True(t, res.State.FundValue.Equal(decimal.NewFromInt(520)),
		"fund = %s", res.State.FundValue)
	assert.True(t, res.State.Position.IsLong())
	state = res.State

	// Day 4: open 64 clears the 63.45 target.
	res, err = eng.StepAt(ctx, state, primary, secondary, 4)
	require.NoError(t, err)
	require.NotNil(t, res.Event)
	assert.Equal(t, models.ActionSell, res.Event.Action)
	// profit 158*4=632, skim 20% = 126.40
	assert.True(t, res.State.BankBalance.Equal(decimal.NewFromFloat(126.40)),
		"bank = %s", res.State.BankBalance)
	assert.True(t, res.State.FundValue.Equal(decimal.NewFromFloat(10505.60)),
		"fund = %s", res.State.FundValue)
	assert.False(t, res.State.Position.IsLong())
	assert.Equal(t, primary[4].Date, res.State.LastSellDate)
	state = res.State

	// Day 5: deep dip, but the previous session sold.
	res, err = eng.StepAt(ctx, state, primary, secondary, 5)
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	assert.Equal(t, models.ReasonCooldown, res.Decision.Reason)
	state = res.State

	// Replaying day 5 is a no-op.
	replay, err := eng.StepAt(ctx, state, primary, secondary, 5)
	require.NoError(t, err)
	assert.True(t, replay.Skipped)
	assert.Equal(t, SkipAlreadyProcessed, replay.SkipReason)
	assert.Equal(t, state, replay.State)
}

func TestStepAtInsufficientHistory(t *testing.T) {
	ctx := context.Background()
	eng := New(testStrategy(), zerolog.Nop())

	primary := testBars([]float64{100, 100, 100})
	secondary := testBars([]float64{20, 20, 20})

	state := models.NewLedgerState(decimal.NewFromInt(10000))
	res, err := eng.StepAt(ctx, state, primary, secondary, 1)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, SkipInsufficientHistory, res.SkipReason)
	// The whole state, LastProcessed included, must be untouched.
	assert.Equal(t, state, res.State)
}

func TestStepInsufficientCapitalDowngrades(t *testing.T) {
	ctx := context.Background()
	eng := New(testStrategy(), zerolog.Nop())

	primary := testBars([]float64{100, 100, 100, 60})
	secondary := testBars([]float64{20, 20, 20, 20})

	// 95% of 50 cannot afford one share at 60.
	state := models.NewLedgerState(decimal.NewFromInt(50))
	res, err := eng.StepAt(ctx, state, primary, secondary, 3)
	require.NoError(t, err)
	assert.Nil(t, res.Event)
	assert.Equal(t, models.ActionHold, res.Decision.Action)
	assert.Equal(t, models.ReasonInsufficientCapital, res.Decision.Reason)
	assert.False(t, res.State.Position.IsLong())
	// The day still counts as processed.
	assert.Equal(t, primary[3].Date, res.State.LastProcessed)
}

func TestRunDateMarketClosed(t *testing.T) {
	ctx := context.Background()
	eng := New(testStrategy(), zerolog.Nop())

	primary := testBars([]float64{100, 100, 100, 60, 64})
	secondary := testBars([]float64{20, 20, 20, 20, 20})

	store := statestore.NewMemoryStore()
	runner := NewLiveRunner(eng, store, "", decimal.NewFromInt(10000))

	// Evaluate a real session first so the store holds a state.
	out, err := runner.RunDate(ctx, primary, secondary, primary[2].Date)
	require.NoError(t, err)
	require.True(t, out.Saved)
	persisted, err := store.Load(ctx, statestore.DefaultTraderID)
	require.NoError(t, err)

	// A Saturday has no bar: the day is skipped, not an error.
	saturday := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	out, err = runner.RunDate(ctx, primary, secondary, saturday)
	require.NoError(t, err)
	assert.True(t, out.Result.Skipped)
	assert.Equal(t, SkipMarketClosed, out.Result.SkipReason)
	assert.False(t, out.Saved)
	assert.Equal(t, saturday, out.Input.Date)
	assert.Equal(t, persisted, out.Result.State)

	// The persisted state is untouched by the closed day.
	after, err := store.Load(ctx, statestore.DefaultTraderID)
	require.NoError(t, err)
	assert.Equal(t, persisted, after)
}

func TestBacktest(t *testing.T) {
	ctx := context.Background()
	eng := New(testStrategy(), zerolog.Nop())

	primary := testBars([]float64{100, 100, 100, 60, 64, 30, 100})
	secondary := testBars([]float64{20, 20, 20, 20, 20, 20, 20})

	result, err := eng.Backtest(ctx, BacktestConfig{
		Primary:   primary,
		Secondary: secondary,
		Principal: decimal.NewFromInt(10000),
	})
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, models.ActionBuy, result.Trades[0].Action)
	assert.Equal(t, models.ActionSell, result.Trades[1].Action)

	assert.Equal(t, 2, result.SkippedDays)
	assert.Len(t, result.EquityCurve, 5)
	assert.Equal(t, primary[2].Date, result.FirstDecision)

	// Flat at the end: equity is fund plus bank.
	wantEquity := decimal.NewFromFloat(10505.60).Add(decimal.NewFromFloat(126.40))
	assert.True(t, result.FinalEquity.Equal(wantEquity), "equity = %s", result.FinalEquity)
	assert.InDelta(t, 6.32, result.TotalReturnPct, 1e-9)

	// Buy-and-hold enters at 100 on the first decision day and exits at the
	// final close of 100: flat.
	assert.True(t, result.BuyHoldFinal.Equal(decimal.NewFromInt(10000)),
		"buy-hold = %s", result.BuyHoldFinal)
	assert.InDelta(t, 0.0, result.BuyHoldReturnPct, 1e-9)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()

	primary := testBars([]float64{100, 100, 100, 60, 64, 30, 100})
	secondary := testBars([]float64{20, 20, 20, 20, 20, 20, 20})
	data := BacktestConfig{Primary: primary, Secondary: secondary, Principal: decimal.NewFromInt(10000)}

	low := testStrategy()
	low.SellGainRatio = 1.03
	high := testStrategy()
	high.SellGainRatio = 2.0

	outcomes := Sweep(ctx, zerolog.Nop(),
		[]SweepVariant{
			{Label: "low", Strategy: low},
			{Label: "high", Strategy: high},
		}, data)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "low", outcomes[0].Label)
	assert.Equal(t, "high", outcomes[1].Label)
	for _, o := range outcomes {
		require.NoError(t, o.Err)
		require.NotNil(t, o.Result)
	}

	// The doubled target is never reached, so that variant still holds at the end.
	assert.True(t, outcomes[1].Result.FinalState.Position.IsLong())
	// The 1.03 target sells at 64 just like the default.
	assert.False(t, outcomes[0].Result.FinalState.Position.IsLong())
}
