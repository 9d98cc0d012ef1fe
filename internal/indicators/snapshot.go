package indicators

import (
	"context"
	"sync"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

// Engine computes per-date indicator snapshots for the instrument pair.
type Engine struct {
	sma *SMA
	wma *LaggedWMA
}

// NewEngine creates an engine with the given window and lag parameters.
func NewEngine(smaWindow, wmaWindow, wmaLag int) *Engine {
	return &Engine{
		sma: NewSMA(smaWindow),
		wma: NewLaggedWMA(wmaWindow, wmaLag),
	}
}

// MinIndex is the first session index at which both indicators are defined.
func (e *Engine) MinIndex() int {
	if e.sma.MinIndex() > e.wma.MinIndex() {
		return e.sma.MinIndex()
	}
	return e.wma.MinIndex()
}

// SnapshotAt builds the indicator snapshot for session index i of two aligned
// series. Returns ErrInsufficientHistory if either window does not fit.
func (e *Engine) SnapshotAt(primary, secondary []models.Bar, i int) (models.IndicatorSnapshot, error) {
	sma, err := e.sma.At(primary, i)
	if err != nil {
		return models.IndicatorSnapshot{}, err
	}
	wma, err := e.wma.At(secondary, i)
	if err != nil {
		return models.IndicatorSnapshot{}, err
	}
	return models.IndicatorSnapshot{
		Date:               primary[i].Date,
		SMAPrimary:         sma,
		WMASecondaryLagged: wma,
	}, nil
}

// SnapshotSeries precomputes snapshots for a whole backtest. The two
// instrument series are computed concurrently; they have no cross-day
// dependency, unlike the transition sequence that consumes them. Entries
// before MinIndex are zero-valued.
func (e *Engine) SnapshotSeries(ctx context.Context, primary, secondary []models.Bar) ([]models.IndicatorSnapshot, error) {
	if len(primary) != len(secondary) {
		return nil, apperrors.ErrMisalignedData
	}
	if len(primary) <= e.MinIndex() {
		return nil, apperrors.ErrInsufficientHistory
	}

	var (
		wg             sync.WaitGroup
		smaSeries      []float64
		wmaSeries      []float64
		smaErr, wmaErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		smaSeries, smaErr = e.sma.Calculate(primary)
	}()
	go func() {
		defer wg.Done()
		wmaSeries, wmaErr = e.wma.Calculate(secondary)
	}()
	wg.Wait()

	if smaErr != nil {
		return nil, smaErr
	}
	if wmaErr != nil {
		return nil, wmaErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshots := make([]models.IndicatorSnapshot, len(primary))
	for i := e.MinIndex(); i < len(primary); i++ {
		snapshots[i] = models.IndicatorSnapshot{
			Date:               primary[i].Date,
			SMAPrimary:         smaSeries[i],
			WMASecondaryLagged: wmaSeries[i],
		}
	}
	return snapshots, nil
}
