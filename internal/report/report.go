// Package report assembles the daily status snapshot handed to the CLI and
// the notifiers. Building a report changes nothing: the same step result
// always yields the same report.
package report

import (
	"encoding/json"

	"tecl-trader/internal/calendar"
	"tecl-trader/internal/config"
	"tecl-trader/internal/engine"
	"tecl-trader/internal/models"
	"tecl-trader/internal/strategy"
)

// Builder turns step results into daily reports.
type Builder struct {
	cfg  config.StrategyConfig
	eval *strategy.Evaluator
}

func NewBuilder(cfg config.StrategyConfig) *Builder {
	return &Builder{cfg: cfg, eval: strategy.NewEvaluator(cfg)}
}

// Build assembles the report for one evaluated session. The state inside
// res is the post-settlement state, so a sell day reports the flat side and
// the updated bank balance.
func (b *Builder) Build(res engine.StepResult, in engine.StepInput) models.DailyReport {
	r := models.DailyReport{
		Date:          in.Date,
		Trade:         res.Event,
		Skipped:       res.Skipped,
		SkipReason:    res.SkipReason,
		PrimaryOpen:   in.PrimaryBar.Open,
		SecondaryOpen: in.SecondaryBar.Open,
		Indicators:    in.Snapshot,
		Ledger:        res.State,
	}
	if res.Event != nil {
		r.Bought = res.Event.Action == models.ActionBuy
		r.Sold = res.Event.Action == models.ActionSell
	}

	state := res.State
	if state.Position.IsLong() {
		pos := state.Position
		summary := &models.PositionSummary{
			PurchasePrice: pos.PurchasePrice,
			ShareCount:    pos.ShareCount,
			EntryDate:     pos.EntryDate,
			ExitPrice:     b.eval.ExitTarget(pos.PurchasePrice),
		}
		if pos.PurchasePrice > 0 {
			summary.UnrealizedPct = (in.PrimaryBar.Open/pos.PurchasePrice - 1) * 100
		}
		r.Position = summary
	} else {
		flat := &models.FlatSummary{SessionsSinceSell: -1}
		if !state.LastSellDate.IsZero() {
			flat.SessionsSinceSell = calendar.SessionsBetween(state.LastSellDate, in.Date)
			flat.CooldownActive = calendar.SameDay(state.LastSellDate, in.PrevSession)
		}
		r.Flat = flat
	}

	evalIn := strategy.Input{
		Date:          in.Date,
		PrimaryOpen:   in.PrimaryBar.Open,
		SecondaryOpen: in.SecondaryBar.Open,
		Snapshot:      in.Snapshot,
		PrevSession:   in.PrevSession,
	}
	r.Thresholds = b.eval.Thresholds(evalIn, state)

	return r
}

// MarshalJSON renders a report as stable indented JSON, the form both the
// CLI --json flag and the webhook notifier emit.
func MarshalJSON(r models.DailyReport) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
