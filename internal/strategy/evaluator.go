package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"tecl-trader/internal/config"
	"tecl-trader/internal/models"
)

// Input is everything the rule set may look at for one session. All values
// are as of the session open; closes are not consulted.
type Input struct {
	Date          time.Time
	PrimaryOpen   float64
	SecondaryOpen float64
	Snapshot      models.IndicatorSnapshot
	PrevSession   time.Time
}

// Evaluator applies the daily trading rules. It is pure: given the same
// input and ledger state it always produces the same decision, and it never
// mutates either.
type Evaluator struct {
	cfg config.StrategyConfig
}

func NewEvaluator(cfg config.StrategyConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate decides the action for one session. Exit checks run only while
// long, entry checks only while flat; there is no same-day round trip.
func (e *Evaluator) Evaluate(in Input, state models.LedgerState) models.Decision {
	if state.Position.IsLong() {
		return e.evaluateExit(in, state)
	}
	return e.evaluateEntry(in, state)
}

// The exit boundary is inclusive, so the target is computed in decimal: a
// float product of ratio and purchase price can land a hair above the exact
// level (1.0575 * 100 > 105.75 in float64) and miss an open at the boundary.
func (e *Evaluator) evaluateExit(in Input, state models.LedgerState) models.Decision {
	target := decimal.NewFromFloat(state.Position.PurchasePrice).
		Mul(decimal.NewFromFloat(e.cfg.SellGainRatio))
	if decimal.NewFromFloat(in.PrimaryOpen).GreaterThanOrEqual(target) {
		return models.Decision{Action: models.ActionSell, Reason: models.ReasonExitTarget}
	}
	return models.Decision{Action: models.ActionHold, Reason: models.ReasonNoSignal}
}

func (e *Evaluator) evaluateEntry(in Input, state models.LedgerState) models.Decision {
	if e.inCooldown(in, state) {
		return models.Decision{Action: models.ActionHold, Reason: models.ReasonCooldown}
	}

	// The unconditional dip entry is checked before the volatility-confirmed
	// one; a deep dip buys regardless of the secondary index.
	if in.PrimaryOpen < e.cfg.ImmediateBuyRatio*in.Snapshot.SMAPrimary {
		return models.Decision{Action: models.ActionBuy, Reason: models.ReasonImmediateBuy}
	}

	if in.PrimaryOpen < e.cfg.ConfirmedBuyRatio*in.Snapshot.SMAPrimary &&
		in.SecondaryOpen > e.cfg.VIXConfirmationRatio*in.Snapshot.WMASecondaryLagged {
		return models.Decision{Action: models.ActionBuy, Reason: models.ReasonConfirmedBuy}
	}

	return models.Decision{Action: models.ActionHold, Reason: models.ReasonNoSignal}
}

// inCooldown reports whether the previous trading session ended with a sell.
// Re-entry is blocked for exactly one session, measured in sessions rather
// than calendar days, so a Friday sell blocks Monday.
func (e *Evaluator) inCooldown(in Input, state models.LedgerState) bool {
	if state.LastSellDate.IsZero() || in.PrevSession.IsZero() {
		return false
	}
	return sameDay(state.LastSellDate, in.PrevSession)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ExitTarget returns the exact open price that triggers the sell rule for a
// position bought at the given price. Reports show this value so it must
// match the decimal comparison in evaluateExit, not a float product.
func (e *Evaluator) ExitTarget(purchasePrice float64) float64 {
	target, _ := decimal.NewFromFloat(purchasePrice).
		Mul(decimal.NewFromFloat(e.cfg.SellGainRatio)).Float64()
	return target
}

// Thresholds derives the entry and exit levels a report displays for the
// current state. While flat the nearest entry trigger is reported; while
// long the exit target is.
func (e *Evaluator) Thresholds(in Input, state models.LedgerState) models.ThresholdReport {
	t := models.ThresholdReport{
		ImmediateBuyBelow:   e.cfg.ImmediateBuyRatio * in.Snapshot.SMAPrimary,
		ConfirmedBuyBelow:   e.cfg.ConfirmedBuyRatio * in.Snapshot.SMAPrimary,
		VolatilityConfirmed: in.SecondaryOpen > e.cfg.VIXConfirmationRatio*in.Snapshot.WMASecondaryLagged,
	}
	if state.Position.IsLong() {
		t.Nearest = e.ExitTarget(state.Position.PurchasePrice)
		t.Distance = t.Nearest - in.PrimaryOpen
	} else {
		t.Nearest = t.ConfirmedBuyBelow
		if t.VolatilityConfirmed {
			t.Distance = in.PrimaryOpen - t.ConfirmedBuyBelow
		} else {
			t.Nearest = t.ImmediateBuyBelow
			t.Distance = in.PrimaryOpen - t.ImmediateBuyBelow
		}
	}
	if in.PrimaryOpen != 0 {
		t.DistancePct = t.Distance / in.PrimaryOpen * 100
	}
	return t
}
