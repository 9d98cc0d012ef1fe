package statestore

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse decimal %q: %w", s, err)
	}
	return d, nil
}

// MemoryStore is an in-memory Store with the same version semantics as the
// SQLite one. Used in tests and for throwaway runs.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]models.LedgerState
	events map[string][]models.TradeEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]models.LedgerState),
		events: make(map[string][]models.TradeEvent),
	}
}

func (m *MemoryStore) Load(ctx context.Context, traderID string) (models.LedgerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[traderID]
	if !ok {
		return models.LedgerState{}, apperrors.ErrStateNotFound
	}
	return state, nil
}

func (m *MemoryStore) Save(ctx context.Context, traderID string, state models.LedgerState, expectedVersion int64) (models.LedgerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.states[traderID]
	if exists && current.Version != expectedVersion {
		return state, apperrors.ErrVersionConflict
	}
	if !exists && expectedVersion != 0 {
		return state, apperrors.ErrVersionConflict
	}

	state.Version = expectedVersion + 1
	m.states[traderID] = state
	return state, nil
}

func (m *MemoryStore) LogEvent(ctx context.Context, traderID string, event models.TradeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events[traderID] {
		if e.Date.Equal(event.Date) && e.Action == event.Action {
			return nil
		}
	}
	m.events[traderID] = append(m.events[traderID], event)
	return nil
}

func (m *MemoryStore) Events(ctx context.Context, traderID string, limit int) ([]models.TradeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src := m.events[traderID]
	out := make([]models.TradeEvent, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
