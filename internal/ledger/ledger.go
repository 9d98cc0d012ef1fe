// Package ledger owns all mutation of the trading state. Signals decide,
// the ledger settles: share sizing, cash movement and the profit skim all
// happen here and nowhere else.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"tecl-trader/internal/config"
	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

// Ledger applies decisions to a state. Stateless; safe for concurrent use.
type Ledger struct {
	cfg config.StrategyConfig
}

func New(cfg config.StrategyConfig) *Ledger {
	return &Ledger{cfg: cfg}
}

// Apply settles one decision at the given session's open price and returns
// the next state. The input state is never mutated. A BUY or SELL yields a
// TradeEvent; HOLD yields none.
//
// ErrInsufficientCapital is returned, with the state unchanged, when a BUY
// sizes to zero shares; the caller records the day as a HOLD.
func (l *Ledger) Apply(state models.LedgerState, d models.Decision, date time.Time, openPrice float64) (models.LedgerState, *models.TradeEvent, error) {
	switch d.Action {
	case models.ActionHold:
		return state, nil, nil
	case models.ActionBuy:
		return l.applyBuy(state, d, date, openPrice)
	case models.ActionSell:
		return l.applySell(state, d, date, openPrice)
	default:
		return state, nil, apperrors.NewTransitionError(string(state.Position.Status), string(d.Action), date)
	}
}

func (l *Ledger) applyBuy(state models.LedgerState, d models.Decision, date time.Time, openPrice float64) (models.LedgerState, *models.TradeEvent, error) {
	if state.Position.IsLong() {
		return state, nil, apperrors.NewTransitionError(string(state.Position.Status), string(d.Action), date)
	}

	price := decimal.NewFromFloat(openPrice)
	if !price.IsPositive() {
		return state, nil, apperrors.Wrapf(apperrors.ErrMisalignedData,
			"non-positive open price %s on %s", price, date.Format("2006-01-02"))
	}

	// Size to the configured fraction of the fund, whole shares only,
	// rounded down. The remainder stays in the fund.
	budget := state.FundValue.Mul(decimal.NewFromFloat(l.cfg.PositionSizeFraction))
	shares := budget.Div(price).Truncate(0).IntPart()
	if shares < 1 {
		return state, nil, apperrors.ErrInsufficientCapital
	}

	cost := price.Mul(decimal.NewFromInt(shares))
	next := state
	next.FundValue = state.FundValue.Sub(cost)
	next.Position = models.Position{
		Status:        models.StatusLong,
		EntryDate:     date,
		PurchasePrice: openPrice,
		ShareCount:    shares,
	}

	event := &models.TradeEvent{
		Date:        date,
		Action:      models.ActionBuy,
		Reason:      d.Reason,
		Price:       openPrice,
		ShareCount:  shares,
		FundValue:   next.FundValue,
		BankBalance: next.BankBalance,
	}
	return next, event, nil
}

func (l *Ledger) applySell(state models.LedgerState, d models.Decision, date time.Time, openPrice float64) (models.LedgerState, *models.TradeEvent, error) {
	if !state.Position.IsLong() {
		return state, nil, apperrors.NewTransitionError(string(state.Position.Status), string(d.Action), date)
	}

	price := decimal.NewFromFloat(openPrice)
	shares := decimal.NewFromInt(state.Position.ShareCount)
	proceeds := price.Mul(shares)
	basis := decimal.NewFromFloat(state.Position.PurchasePrice).Mul(shares)
	profit := proceeds.Sub(basis)

	next := state
	if profit.IsPositive() {
		skim := profit.Mul(decimal.NewFromFloat(l.cfg.ProfitSkimFraction))
		next.BankBalance = state.BankBalance.Add(skim)
		next.FundValue = state.FundValue.Add(proceeds.Sub(skim))
	} else {
		next.FundValue = state.FundValue.Add(proceeds)
	}
	next.LastSellDate = date
	next.Position = models.Position{Status: models.StatusFlat}

	event := &models.TradeEvent{
		Date:        date,
		Action:      models.ActionSell,
		Reason:      d.Reason,
		Price:       openPrice,
		ShareCount:  state.Position.ShareCount,
		FundValue:   next.FundValue,
		BankBalance: next.BankBalance,
	}
	return next, event, nil
}
