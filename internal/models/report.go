package models

import "time"

// PositionSummary describes the open position in a daily report.
type PositionSummary struct {
	PurchasePrice float64   `json:"purchase_price"`
	ShareCount    int64     `json:"share_count"`
	EntryDate     time.Time `json:"entry_date"`
	// ExitPrice is the exact open price that would trigger the sell rule.
	ExitPrice float64 `json:"exit_price"`
	// UnrealizedPct is the percentage gain at the current price.
	UnrealizedPct float64 `json:"unrealized_pct"`
}

// FlatSummary describes the flat side of a daily report.
type FlatSummary struct {
	// SessionsSinceSell counts trading sessions elapsed since the last sell;
	// -1 when no sell has ever occurred.
	SessionsSinceSell int `json:"sessions_since_sell"`
	// CooldownActive is true on the single session following a sell.
	CooldownActive bool `json:"cooldown_active"`
}

// ThresholdReport expresses the buy thresholds in price units and the
// distance from the current open to the nearer active one.
type ThresholdReport struct {
	// ImmediateBuyBelow is the deep-discount entry level.
	ImmediateBuyBelow float64 `json:"immediate_buy_below"`
	// ConfirmedBuyBelow is the volatility-confirmed entry level.
	ConfirmedBuyBelow float64 `json:"confirmed_buy_below"`
	// VolatilityConfirmed reports whether the secondary leg currently clears
	// its confirmation ratio.
	VolatilityConfirmed bool `json:"volatility_confirmed"`
	// Nearest is the nearer active threshold to the current open.
	Nearest float64 `json:"nearest"`
	// Distance and DistancePct measure open-to-threshold in absolute currency
	// units and as a percentage of the open.
	Distance    float64 `json:"distance"`
	DistancePct float64 `json:"distance_pct"`
}

// DailyReport is the snapshot assembled for one evaluation date. It is
// transient: built for the caller to serialize or hand to a notifier, never
// retained by the engine.
type DailyReport struct {
	Date time.Time `json:"date"`

	Bought bool        `json:"bought"`
	Sold   bool        `json:"sold"`
	Trade  *TradeEvent `json:"trade,omitempty"`

	// Skipped is set when no decision was evaluated for the day, with the
	// condition that caused it (insufficient history, already processed).
	Skipped    bool   `json:"skipped,omitempty"`
	SkipReason string `json:"skip_reason,omitempty"`

	PrimaryOpen   float64           `json:"primary_open"`
	SecondaryOpen float64           `json:"secondary_open"`
	Indicators    IndicatorSnapshot `json:"indicators"`

	Position   *PositionSummary `json:"position,omitempty"`
	Flat       *FlatSummary     `json:"flat,omitempty"`
	Thresholds ThresholdReport  `json:"thresholds"`

	Ledger LedgerState `json:"ledger"`
}
