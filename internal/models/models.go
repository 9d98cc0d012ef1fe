// Package models provides domain models for the trading engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Instrument identifies one of the two legs of the strategy pair.
type Instrument string

const (
	// InstrumentPrimary is the leveraged equity being traded (e.g. TECL).
	InstrumentPrimary Instrument = "PRIMARY"
	// InstrumentSecondary is the volatility index used for confirmation (e.g. VIX).
	InstrumentSecondary Instrument = "SECONDARY"
)

// PositionStatus represents the lifecycle state of the single position slot.
type PositionStatus string

const (
	StatusFlat PositionStatus = "FLAT"
	StatusLong PositionStatus = "LONG"
)

// Bar represents one instrument's OHLC data for a single trading session.
// Bars are immutable once recorded; a series must be strictly increasing by
// date with no duplicates.
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// IndicatorSnapshot holds the derived indicator values for one decision date.
type IndicatorSnapshot struct {
	Date time.Time `json:"date"`
	// SMAPrimary is the trailing simple average of the primary instrument's
	// open over the configured window, ending at Date inclusive.
	SMAPrimary float64 `json:"sma_primary"`
	// WMASecondaryLagged is the linearly weighted average of the secondary
	// instrument over a window ending a fixed number of sessions before Date.
	WMASecondaryLagged float64 `json:"wma_secondary_lagged"`
}

// Position is the single open-position entity. At most one instance is live
// at a time; it is exclusively owned by the ledger.
type Position struct {
	Status        PositionStatus `json:"status"`
	EntryDate     time.Time      `json:"entry_date,omitempty"`
	PurchasePrice float64        `json:"purchase_price,omitempty"`
	ShareCount    int64          `json:"share_count,omitempty"`
}

// IsLong reports whether a position is currently open.
func (p Position) IsLong() bool {
	return p.Status == StatusLong
}

// LedgerState is the complete simulation state threaded through every step.
// It is a value: step functions take a state in and return a new state out,
// so a single price history can be replayed against multiple parameter sets
// without cross-contamination.
type LedgerState struct {
	// FundValue is the capital available for trading. Never negative.
	FundValue decimal.Decimal `json:"fund_value"`
	// BankBalance receives the skimmed fraction of each realized profit.
	// Monotonically non-decreasing.
	BankBalance decimal.Decimal `json:"bank_balance"`
	// LastSellDate is the session date of the most recent SELL, zero if none.
	LastSellDate time.Time `json:"last_sell_date,omitempty"`
	// LastProcessed is the most recent session date a step has completed for.
	// Live mode uses it to short-circuit duplicate invocations for one day.
	LastProcessed time.Time `json:"last_processed,omitempty"`
	Position      Position  `json:"position"`
	// Version is the optimistic-concurrency token owned by the state store.
	Version int64 `json:"version"`
}

// NewLedgerState returns a flat ledger funded with the given principal.
func NewLedgerState(principal decimal.Decimal) LedgerState {
	return LedgerState{
		FundValue:   principal,
		BankBalance: decimal.Zero,
		Position:    Position{Status: StatusFlat},
	}
}

// Total returns fund plus bank, the headline equity excluding any open
// position's market value.
func (s LedgerState) Total() decimal.Decimal {
	return s.FundValue.Add(s.BankBalance)
}

// MarkToMarket values the ledger using the given price for any open position.
func (s LedgerState) MarkToMarket(price float64) decimal.Decimal {
	total := s.Total()
	if s.Position.IsLong() {
		mv := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(s.Position.ShareCount))
		total = total.Add(mv)
	}
	return total
}
