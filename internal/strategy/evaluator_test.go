package strategy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"tecl-trader/internal/config"
	"tecl-trader/internal/models"
)

func testInput(primaryOpen, secondaryOpen, sma, wma float64) Input {
	return Input{
		Date:          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		PrimaryOpen:   primaryOpen,
		SecondaryOpen: secondaryOpen,
		Snapshot: models.IndicatorSnapshot{
			SMAPrimary:         sma,
			WMASecondaryLagged: wma,
		},
		PrevSession: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
	}
}

func flatState() models.LedgerState {
	return models.NewLedgerState(decimal.NewFromInt(10000))
}

func longState(purchase float64) models.LedgerState {
	s := flatState()
	s.Position = models.Position{
		Status:        models.StatusLong,
		EntryDate:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		PurchasePrice: purchase,
		ShareCount:    100,
	}
	return s
}

func TestEvaluateEntry(t *testing.T) {
	eval := NewEvaluator(config.DefaultStrategy())

	tests := []struct {
		name       string
		in         Input
		wantAction models.Action
		wantReason models.Reason
	}{
		{
			// open 74 < 0.75 * 100
			name:       "deep dip buys unconditionally",
			in:         testInput(74, 10, 100, 20),
			wantAction: models.ActionBuy,
			wantReason: models.ReasonImmediateBuy,
		},
		{
			// deep dip wins even when the volatility branch would also fire
			name:       "deep dip takes precedence over confirmation",
			in:         testInput(74, 30, 100, 20),
			wantAction: models.ActionBuy,
			wantReason: models.ReasonImmediateBuy,
		},
		{
			// open 120 < 1.25 * 100, vix 25 > 1.04 * 20
			name:       "moderate dip with volatility confirmation buys",
			in:         testInput(120, 25, 100, 20),
			wantAction: models.ActionBuy,
			wantReason: models.ReasonConfirmedBuy,
		},
		{
			// moderate dip but vix 20 < 1.04 * 20
			name:       "moderate dip without confirmation holds",
			in:         testInput(120, 20, 100, 20),
			wantAction: models.ActionHold,
			wantReason: models.ReasonNoSignal,
		},
		{
			// open 130 > 1.25 * 100, confirmation alone is not enough
			name:       "no dip holds regardless of volatility",
			in:         testInput(130, 30, 100, 20),
			wantAction: models.ActionHold,
			wantReason: models.ReasonNoSignal,
		},
		{
			// exactly at the threshold is not below it
			name:       "open equal to immediate threshold holds",
			in:         testInput(75, 20, 100, 20),
			wantAction: models.ActionHold,
			wantReason: models.ReasonNoSignal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := eval.Evaluate(tt.in, flatState())
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantReason, d.Reason)
		})
	}
}

func TestEvaluateExit(t *testing.T) {
	eval := NewEvaluator(config.DefaultStrategy())

	t.Run("sells at exactly the target", func(t *testing.T) {
		// 100 * 1.0575
		d := eval.Evaluate(testInput(105.75, 20, 100, 20), longState(100))
		assert.Equal(t, models.ActionSell, d.Action)
		assert.Equal(t, models.ReasonExitTarget, d.Reason)
	})

	t.Run("holds just below the target", func(t *testing.T) {
		d := eval.Evaluate(testInput(105.74, 20, 100, 20), longState(100))
		assert.Equal(t, models.ActionHold, d.Action)
	})

	t.Run("entry rules never fire while long", func(t *testing.T) {
		// Would be an immediate buy if flat.
		d := eval.Evaluate(testInput(50, 30, 100, 20), longState(100))
		assert.Equal(t, models.ActionHold, d.Action)
		assert.Equal(t, models.ReasonNoSignal, d.Reason)
	})
}

func TestCooldown(t *testing.T) {
	eval := NewEvaluator(config.DefaultStrategy())

	t.Run("sell on previous session blocks entry", func(t *testing.T) {
		state := flatState()
		state.LastSellDate = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

		// Deep dip, would otherwise buy immediately.
		d := eval.Evaluate(testInput(50, 30, 100, 20), state)
		assert.Equal(t, models.ActionHold, d.Action)
		assert.Equal(t, models.ReasonCooldown, d.Reason)
	})

	t.Run("older sell does not block", func(t *testing.T) {
		state := flatState()
		state.LastSellDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

		d := eval.Evaluate(testInput(50, 30, 100, 20), state)
		assert.Equal(t, models.ActionBuy, d.Action)
	})

	t.Run("friday sell blocks monday", func(t *testing.T) {
		state := flatState()
		state.LastSellDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // Friday

		in := testInput(50, 30, 100, 20)
		in.Date = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
		in.PrevSession = state.LastSellDate

		d := eval.Evaluate(in, state)
		assert.Equal(t, models.ReasonCooldown, d.Reason)
	})
}

func TestThresholds(t *testing.T) {
	eval := NewEvaluator(config.DefaultStrategy())

	t.Run("flat without confirmation reports deep threshold", func(t *testing.T) {
		th := eval.Thresholds(testInput(100, 20, 100, 20), flatState())
		assert.Equal(t, 75.0, th.Nearest)
		assert.False(t, th.VolatilityConfirmed)
		assert.InDelta(t, 25.0, th.Distance, 1e-9)
	})

	t.Run("flat with confirmation reports moderate threshold", func(t *testing.T) {
		th := eval.Thresholds(testInput(130, 25, 100, 20), flatState())
		assert.Equal(t, 125.0, th.Nearest)
		assert.True(t, th.VolatilityConfirmed)
	})

	t.Run("long reports exit target", func(t *testing.T) {
		th := eval.Thresholds(testInput(100, 20, 100, 20), longState(100))
		assert.InDelta(t, 105.75, th.Nearest, 1e-9)
	})
}
