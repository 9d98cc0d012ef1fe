package engine

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

const daysPerYear = 365.25

// BacktestConfig describes one replay over aligned historical series.
type BacktestConfig struct {
	Primary   []models.Bar
	Secondary []models.Bar
	Principal decimal.Decimal
}

// EquityPoint is one session's mark-to-market value of the full ledger.
type EquityPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// BacktestResult aggregates a full replay.
type BacktestResult struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// FirstDecision is the first session with enough history to evaluate.
	FirstDecision time.Time `json:"first_decision"`

	Principal   decimal.Decimal    `json:"principal"`
	FinalState  models.LedgerState `json:"final_state"`
	FinalEquity decimal.Decimal    `json:"final_equity"`

	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`

	// Buy-and-hold of the primary over the same decision span, for
	// comparison against the rule set.
	BuyHoldFinal         decimal.Decimal `json:"buy_hold_final"`
	BuyHoldReturnPct     float64         `json:"buy_hold_return_pct"`
	BuyHoldAnnualizedPct float64         `json:"buy_hold_annualized_pct"`

	Trades      []models.TradeEvent `json:"trades"`
	EquityCurve []EquityPoint       `json:"equity_curve"`
	SkippedDays int                 `json:"skipped_days"`
}

// Backtest replays the series from a fresh ledger. Snapshots for both
// instruments are precomputed up front; the state then threads through the
// sessions in order, each day settled before the next is evaluated.
func (e *Engine) Backtest(ctx context.Context, cfg BacktestConfig) (*BacktestResult, error) {
	if len(cfg.Primary) == 0 || len(cfg.Primary) != len(cfg.Secondary) {
		return nil, apperrors.ErrMisalignedData
	}
	if !cfg.Principal.IsPositive() {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "principal must be positive")
	}

	snapshots, err := e.indicators.SnapshotSeries(ctx, cfg.Primary, cfg.Secondary)
	if err != nil {
		return nil, err
	}

	first := e.indicators.MinIndex()
	state := models.NewLedgerState(cfg.Principal)
	result := &BacktestResult{
		StartDate:     cfg.Primary[0].Date,
		EndDate:       cfg.Primary[len(cfg.Primary)-1].Date,
		FirstDecision: cfg.Primary[first].Date,
		Principal:     cfg.Principal,
		SkippedDays:   first,
		EquityCurve:   make([]EquityPoint, 0, len(cfg.Primary)-first),
	}

	for i := first; i < len(cfg.Primary); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in := StepInput{
			Date:         cfg.Primary[i].Date,
			PrimaryBar:   cfg.Primary[i],
			SecondaryBar: cfg.Secondary[i],
			Snapshot:     snapshots[i],
			PrevSession:  prevSessionInSeries(cfg.Primary, i),
		}
		step, err := e.Step(ctx, state, in)
		if err != nil {
			return nil, apperrors.Wrapf(err, "backtest step %s", in.Date.Format("2006-01-02"))
		}
		state = step.State
		if step.Event != nil {
			result.Trades = append(result.Trades, *step.Event)
		}
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Date:  in.Date,
			Value: state.MarkToMarket(cfg.Primary[i].Close),
		})
	}

	result.FinalState = state
	result.FinalEquity = state.MarkToMarket(cfg.Primary[len(cfg.Primary)-1].Close)

	span := result.EndDate.Sub(result.FirstDecision)
	result.TotalReturnPct = returnPct(cfg.Principal, result.FinalEquity)
	result.AnnualizedReturnPct = annualizedPct(cfg.Principal, result.FinalEquity, span)

	e.benchmarkBuyHold(result, cfg, first)

	e.logger.Info().
		Time("start", result.FirstDecision).
		Time("end", result.EndDate).
		Int("trades", len(result.Trades)).
		Str("final_equity", result.FinalEquity.StringFixed(2)).
		Float64("total_return_pct", result.TotalReturnPct).
		Msg("backtest complete")

	return result, nil
}

// benchmarkBuyHold invests the whole principal in the primary at the first
// decision session's open, whole shares only, and marks at the final close.
func (e *Engine) benchmarkBuyHold(result *BacktestResult, cfg BacktestConfig, first int) {
	entry := decimal.NewFromFloat(cfg.Primary[first].Open)
	if !entry.IsPositive() {
		return
	}
	shares := cfg.Principal.Div(entry).Truncate(0).IntPart()
	cash := cfg.Principal.Sub(entry.Mul(decimal.NewFromInt(shares)))
	final := decimal.NewFromFloat(cfg.Primary[len(cfg.Primary)-1].Close).
		Mul(decimal.NewFromInt(shares)).
		Add(cash)

	span := result.EndDate.Sub(result.FirstDecision)
	result.BuyHoldFinal = final
	result.BuyHoldReturnPct = returnPct(cfg.Principal, final)
	result.BuyHoldAnnualizedPct = annualizedPct(cfg.Principal, final, span)
}

func returnPct(principal, final decimal.Decimal) float64 {
	if !principal.IsPositive() {
		return 0
	}
	ratio, _ := final.Div(principal).Float64()
	return (ratio - 1) * 100
}

// annualizedPct compounds the total return over the span measured in
// average-length years.
func annualizedPct(principal, final decimal.Decimal, span time.Duration) float64 {
	if !principal.IsPositive() {
		return 0
	}
	years := span.Hours() / 24 / daysPerYear
	if years <= 0 {
		return 0
	}
	ratio, _ := final.Div(principal).Float64()
	if ratio <= 0 {
		return -100
	}
	return (math.Pow(ratio, 1/years) - 1) * 100
}
