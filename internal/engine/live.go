package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
	"tecl-trader/internal/statestore"
	"tecl-trader/pkg/utils"
)

// LiveRunner wraps one persisted step: load state, evaluate one date, save
// under the version check, log any trade. It is safe to invoke repeatedly
// for the same date from cron, a shell retry loop or a second host.
type LiveRunner struct {
	engine    *Engine
	store     statestore.Store
	traderID  string
	principal decimal.Decimal
}

func NewLiveRunner(e *Engine, store statestore.Store, traderID string, principal decimal.Decimal) *LiveRunner {
	if traderID == "" {
		traderID = statestore.DefaultTraderID
	}
	return &LiveRunner{engine: e, store: store, traderID: traderID, principal: principal}
}

// LiveOutcome bundles what the runner evaluated, for report assembly.
type LiveOutcome struct {
	Result StepResult
	Input  StepInput
	// Saved is false when the day was skipped before any state change.
	Saved bool
}

// RunDate evaluates the session at the given date against the persisted
// state. A concurrent save loses the version race and is retried from a
// fresh load, so at most one invocation's trade lands per day. A date with
// no bar in the series is a closed market, reported as a skipped outcome.
func (r *LiveRunner) RunDate(ctx context.Context, primary, secondary []models.Bar, date time.Time) (LiveOutcome, error) {
	idx := indexOfDate(primary, date)
	if idx < 0 {
		state, err := r.store.Load(ctx, r.traderID)
		if apperrors.Is(err, apperrors.ErrStateNotFound) {
			state = models.NewLedgerState(r.principal)
		} else if err != nil {
			return LiveOutcome{}, err
		}
		return LiveOutcome{
			Result: StepResult{
				State:      state,
				Decision:   models.Decision{Action: models.ActionHold, Reason: models.ReasonNoSignal},
				Skipped:    true,
				SkipReason: SkipMarketClosed,
			},
			Input: StepInput{Date: date},
		}, nil
	}

	cfg := utils.DefaultRetryConfig()
	cfg.RetryableErrors = []error{apperrors.ErrVersionConflict}
	return utils.RetryWithResult(ctx, cfg, func() (LiveOutcome, error) {
		return r.runOnce(ctx, primary, secondary, idx)
	})
}

func (r *LiveRunner) runOnce(ctx context.Context, primary, secondary []models.Bar, idx int) (LiveOutcome, error) {
	state, err := r.store.Load(ctx, r.traderID)
	if apperrors.Is(err, apperrors.ErrStateNotFound) {
		state = models.NewLedgerState(r.principal)
	} else if err != nil {
		return LiveOutcome{}, err
	}

	res, err := r.engine.StepAt(ctx, state, primary, secondary, idx)
	if err != nil {
		return LiveOutcome{}, err
	}

	out := LiveOutcome{
		Result: res,
		Input: StepInput{
			Date:         primary[idx].Date,
			PrimaryBar:   primary[idx],
			SecondaryBar: secondary[idx],
			PrevSession:  prevSessionInSeries(primary, idx),
		},
	}
	if !res.Skipped {
		snap, snapErr := r.engine.indicators.SnapshotAt(primary, secondary, idx)
		if snapErr == nil {
			out.Input.Snapshot = snap
		}
	}

	if res.Skipped {
		// Nothing changed; persisting would only churn the version.
		return out, nil
	}

	if _, err := r.store.Save(ctx, r.traderID, res.State, state.Version); err != nil {
		return LiveOutcome{}, err
	}
	out.Saved = true

	if res.Event != nil {
		if err := r.store.LogEvent(ctx, r.traderID, *res.Event); err != nil {
			return out, apperrors.Wrap(err, "trade settled but event log failed")
		}
	}
	return out, nil
}

func indexOfDate(bars []models.Bar, date time.Time) int {
	for i := len(bars) - 1; i >= 0; i-- {
		if sameDate(bars[i].Date, date) {
			return i
		}
		if bars[i].Date.Before(date) {
			return -1
		}
	}
	return -1
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
