package statestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per trader: the full ledger state as JSON plus its version.
	CREATE TABLE IF NOT EXISTS ledger_state (
		trader_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		version INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Append-only trade log. The unique constraint makes replays no-ops.
	CREATE TABLE IF NOT EXISTS trade_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trader_id TEXT NOT NULL,
		date TEXT NOT NULL,
		action TEXT NOT NULL,
		reason TEXT NOT NULL,
		price REAL NOT NULL,
		share_count INTEGER NOT NULL,
		fund_value TEXT NOT NULL,
		bank_balance TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(trader_id, date, action)
	);

	CREATE INDEX IF NOT EXISTS idx_events_trader ON trade_events(trader_id);
	CREATE INDEX IF NOT EXISTS idx_events_date ON trade_events(date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the persisted state for a trader id.
func (s *SQLiteStore) Load(ctx context.Context, traderID string) (models.LedgerState, error) {
	var payload string
	var version int64
	err := s.db.QueryRowContext(ctx, `
		SELECT state, version FROM ledger_state WHERE trader_id = ?
	`, traderID).Scan(&payload, &version)
	if err == sql.ErrNoRows {
		return models.LedgerState{}, apperrors.ErrStateNotFound
	}
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to load state: %w", err)
	}

	var state models.LedgerState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to decode state: %w", err)
	}
	state.Version = version
	return state, nil
}

// Save writes the state under an optimistic version check. A fresh trader
// saves with expectedVersion 0, which inserts; anything else updates only
// if the stored version still matches.
func (s *SQLiteStore) Save(ctx context.Context, traderID string, state models.LedgerState, expectedVersion int64) (models.LedgerState, error) {
	state.Version = expectedVersion + 1
	payload, err := json.Marshal(state)
	if err != nil {
		return state, fmt.Errorf("failed to encode state: %w", err)
	}

	var result sql.Result
	if expectedVersion == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO ledger_state (trader_id, state, version, updated_at)
			VALUES (?, ?, ?, ?)
		`, traderID, string(payload), state.Version, time.Now())
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE ledger_state SET state = ?, version = ?, updated_at = ?
			WHERE trader_id = ? AND version = ?
		`, string(payload), state.Version, time.Now(), traderID, expectedVersion)
	}
	if err != nil {
		return state, fmt.Errorf("failed to save state: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return state, apperrors.ErrVersionConflict
	}
	return state, nil
}

// LogEvent appends a trade to the event log.
func (s *SQLiteStore) LogEvent(ctx context.Context, traderID string, event models.TradeEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO trade_events (trader_id, date, action, reason, price, share_count, fund_value, bank_balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, traderID, event.Date.Format("2006-01-02"), string(event.Action), string(event.Reason),
		event.Price, event.ShareCount, event.FundValue.String(), event.BankBalance.String())
	if err != nil {
		return fmt.Errorf("failed to log event: %w", err)
	}
	return nil
}

// Events returns the most recent trades, newest first.
func (s *SQLiteStore) Events(ctx context.Context, traderID string, limit int) ([]models.TradeEvent, error) {
	query := `
		SELECT date, action, reason, price, share_count, fund_value, bank_balance
		FROM trade_events WHERE trader_id = ? ORDER BY date DESC
	`
	args := []interface{}{traderID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.TradeEvent
	for rows.Next() {
		var e models.TradeEvent
		var date, action, reason, fund, bank string
		if err := rows.Scan(&date, &action, &reason, &e.Price, &e.ShareCount, &fund, &bank); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse event date: %w", err)
		}
		e.Action = models.Action(action)
		e.Reason = models.Reason(reason)
		if e.FundValue, err = parseDecimal(fund); err != nil {
			return nil, err
		}
		if e.BankBalance, err = parseDecimal(bank); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
