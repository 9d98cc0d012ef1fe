package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action represents the trading decision for one session.
type Action string

const (
	ActionHold Action = "HOLD"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Reason tags the branch of the rule that produced a decision.
type Reason string

const (
	// ReasonImmediateBuy fires when the primary opens below the deep-discount
	// fraction of its moving average.
	ReasonImmediateBuy Reason = "immediate_buy"
	// ReasonConfirmedBuy fires when the primary is moderately discounted and
	// the volatility leg confirms.
	ReasonConfirmedBuy Reason = "volatility_confirmed_buy"
	// ReasonExitTarget fires when the open reaches the configured gain over
	// the purchase price.
	ReasonExitTarget Reason = "exit_target"
	// ReasonCooldown forces HOLD on the session immediately after a sell.
	ReasonCooldown Reason = "cooldown"
	// ReasonNoSignal is a HOLD with no rule branch active.
	ReasonNoSignal Reason = "no_signal"
	// ReasonInsufficientCapital marks a BUY downgraded to HOLD because the
	// sized order rounded down to zero shares.
	ReasonInsufficientCapital Reason = "insufficient_capital"
)

// Decision is the output of the signal evaluator: what to do today and which
// branch of the rule said so.
type Decision struct {
	Action Action `json:"action"`
	Reason Reason `json:"reason"`
}

// TradeEvent is the append-only record of a BUY or SELL actually taken.
// HOLD sessions produce no event.
type TradeEvent struct {
	Date        time.Time       `json:"date"`
	Action      Action          `json:"action"`
	Reason      Reason          `json:"reason"`
	Price       float64         `json:"price"`
	ShareCount  int64           `json:"share_count"`
	FundValue   decimal.Decimal `json:"resulting_fund_value"`
	BankBalance decimal.Decimal `json:"resulting_bank_balance"`
}
