// Package engine drives the daily evaluation cycle: indicators in, a
// decision out, a settled ledger state back. It owns no persistence and no
// I/O; callers load state, step it, and store the result.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tecl-trader/internal/calendar"
	"tecl-trader/internal/config"
	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/indicators"
	"tecl-trader/internal/ledger"
	"tecl-trader/internal/logging"
	"tecl-trader/internal/models"
	"tecl-trader/internal/strategy"
)

// Skip reasons reported by Step when no decision was evaluated.
const (
	SkipAlreadyProcessed    = "already_processed"
	SkipInsufficientHistory = "insufficient_history"
	SkipMarketClosed        = "market_closed"
)

// Engine combines the indicator pipeline, the rule evaluator and the ledger
// into a single step function.
type Engine struct {
	cfg        config.StrategyConfig
	indicators *indicators.Engine
	eval       *strategy.Evaluator
	ledger     *ledger.Ledger
	logger     zerolog.Logger
}

func New(cfg config.StrategyConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		indicators: indicators.NewEngine(cfg.SMAWindow, cfg.WMAWindow, cfg.WMALag),
		eval:       strategy.NewEvaluator(cfg),
		ledger:     ledger.New(cfg),
		logger:     logger,
	}
}

// Evaluator exposes the rule evaluator, for report assembly.
func (e *Engine) Evaluator() *strategy.Evaluator { return e.eval }

// Indicators exposes the indicator pipeline.
func (e *Engine) Indicators() *indicators.Engine { return e.indicators }

// StepInput carries one session's worth of inputs. The two bars are for the
// same date; Snapshot is the indicator view for that date.
type StepInput struct {
	Date         time.Time
	PrimaryBar   models.Bar
	SecondaryBar models.Bar
	Snapshot     models.IndicatorSnapshot
	PrevSession  time.Time
}

// StepResult is the outcome of one session. When Skipped is set no decision
// was evaluated and State equals the input state.
type StepResult struct {
	State      models.LedgerState
	Decision   models.Decision
	Event      *models.TradeEvent
	Skipped    bool
	SkipReason string
}

// Step evaluates and settles one session. Running the same date twice is
// harmless: the second call sees LastProcessed and returns the state as-is,
// which is what makes repeated live invocations safe.
func (e *Engine) Step(ctx context.Context, state models.LedgerState, in StepInput) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{State: state}, err
	}

	if !state.LastProcessed.IsZero() && !in.Date.After(state.LastProcessed) {
		return StepResult{
			State:      state,
			Decision:   models.Decision{Action: models.ActionHold, Reason: models.ReasonNoSignal},
			Skipped:    true,
			SkipReason: SkipAlreadyProcessed,
		}, nil
	}

	evalIn := strategy.Input{
		Date:          in.Date,
		PrimaryOpen:   in.PrimaryBar.Open,
		SecondaryOpen: in.SecondaryBar.Open,
		Snapshot:      in.Snapshot,
		PrevSession:   in.PrevSession,
	}
	decision := e.eval.Evaluate(evalIn, state)

	next, event, err := e.ledger.Apply(state, decision, in.Date, in.PrimaryBar.Open)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInsufficientCapital) {
			// Too little cash for a single share. The day still counts as
			// processed, it just holds.
			decision = models.Decision{Action: models.ActionHold, Reason: models.ReasonInsufficientCapital}
			next = state
			event = nil
			logging.LogSkip(e.logger, in.Date, string(models.ReasonInsufficientCapital))
		} else {
			return StepResult{State: state}, err
		}
	}

	next.LastProcessed = in.Date

	if event != nil {
		logging.LogTrade(e.logger, event.Date, string(event.Action), event.ShareCount, event.Price)
	} else {
		logging.LogSignal(e.logger, in.Date, string(decision.Action), string(decision.Reason))
	}

	return StepResult{State: next, Decision: decision, Event: event}, nil
}

// StepAt computes the snapshot for index i of two aligned series and steps
// the state through that session. When the indicator windows do not yet fit
// the day is skipped and the state is returned untouched, LastProcessed
// included.
func (e *Engine) StepAt(ctx context.Context, state models.LedgerState, primary, secondary []models.Bar, i int) (StepResult, error) {
	if i < 0 || i >= len(primary) || len(primary) != len(secondary) {
		return StepResult{State: state}, apperrors.ErrMisalignedData
	}

	snap, err := e.indicators.SnapshotAt(primary, secondary, i)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInsufficientHistory) {
			return StepResult{
				State:      state,
				Decision:   models.Decision{Action: models.ActionHold, Reason: models.ReasonNoSignal},
				Skipped:    true,
				SkipReason: SkipInsufficientHistory,
			}, nil
		}
		return StepResult{State: state}, err
	}

	in := StepInput{
		Date:         primary[i].Date,
		PrimaryBar:   primary[i],
		SecondaryBar: secondary[i],
		Snapshot:     snap,
		PrevSession:  prevSessionInSeries(primary, i),
	}
	return e.Step(ctx, state, in)
}

// prevSessionInSeries prefers the series' own prior date, falling back to
// the calendar when stepping the first element.
func prevSessionInSeries(bars []models.Bar, i int) time.Time {
	if i > 0 {
		return bars[i-1].Date
	}
	return calendar.PrevSession(bars[i].Date)
}
