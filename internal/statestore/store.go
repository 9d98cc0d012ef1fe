// Package statestore persists ledger state between live runs. Saves are
// guarded by an optimistic version check so two overlapping invocations
// cannot silently overwrite each other.
package statestore

import (
	"context"

	"tecl-trader/internal/models"
)

// DefaultTraderID is the single-trader key used when none is configured.
const DefaultTraderID = "main"

// Store is the persistence boundary for ledger state and the trade log.
type Store interface {
	// Load returns the current state for a trader id, or ErrStateNotFound.
	Load(ctx context.Context, traderID string) (models.LedgerState, error)

	// Save writes state if the stored version still equals expectedVersion,
	// and returns the state with its version advanced. Pass 0 for the first
	// save of a new trader. Returns ErrVersionConflict when another save won;
	// the caller must reload and re-step.
	Save(ctx context.Context, traderID string, state models.LedgerState, expectedVersion int64) (models.LedgerState, error)

	// LogEvent appends a trade to the event log. Replaying the same date and
	// action is a no-op, matching the engine's idempotent step.
	LogEvent(ctx context.Context, traderID string, event models.TradeEvent) error

	// Events returns the most recent trades, newest first.
	Events(ctx context.Context, traderID string, limit int) ([]models.TradeEvent, error)

	Close() error
}
