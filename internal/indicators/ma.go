// Package indicators provides the moving-average computations the trading
// rule is built on.
package indicators

import (
	"fmt"

	apperrors "tecl-trader/internal/errors"
	"tecl-trader/internal/models"
)

// SMA calculates a trailing Simple Moving Average over session opens.
type SMA struct {
	window int
}

// NewSMA creates a new SMA indicator.
func NewSMA(window int) *SMA {
	return &SMA{window: window}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.window)
}

// MinIndex is the first bar index with a full window behind it.
func (s *SMA) MinIndex() int {
	return s.window - 1
}

// At returns the average of the window ending at index i inclusive.
// Accumulation runs oldest-to-newest so results are bit-reproducible.
func (s *SMA) At(bars []models.Bar, i int) (float64, error) {
	if i >= len(bars) {
		return 0, fmt.Errorf("index %d out of range", i)
	}
	if i < s.MinIndex() {
		return 0, apperrors.ErrInsufficientHistory
	}

	var sum float64
	for j := i - s.window + 1; j <= i; j++ {
		sum += bars[j].Open
	}
	return sum / float64(s.window), nil
}

// Calculate returns the full SMA series; entries before MinIndex are zero.
func (s *SMA) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) < s.window {
		return nil, apperrors.ErrInsufficientHistory
	}

	result := make([]float64, len(bars))
	for i := s.MinIndex(); i < len(bars); i++ {
		v, err := s.At(bars, i)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

// LaggedWMA calculates a linearly weighted moving average over session opens,
// with the window ending a fixed number of sessions before the decision
// index. The lag models information availability: on day D the value reflects
// what was computable D-lag sessions ago.
type LaggedWMA struct {
	window int
	lag    int
}

// NewLaggedWMA creates a new lagged WMA indicator.
func NewLaggedWMA(window, lag int) *LaggedWMA {
	return &LaggedWMA{window: window, lag: lag}
}

func (w *LaggedWMA) Name() string {
	return fmt.Sprintf("WMA_%d_lag%d", w.window, w.lag)
}

// MinIndex is the first decision index whose lagged window fits in history.
func (w *LaggedWMA) MinIndex() int {
	return w.window + w.lag - 1
}

// WeightSum is the normalization constant: 1 + 2 + ... + window.
func (w *LaggedWMA) WeightSum() float64 {
	return float64(w.window*(w.window+1)) / 2
}

// At returns the weighted average of the window ending at index i-lag, with
// weights rising linearly from 1 (oldest) to window (most recent).
// Accumulation runs oldest-to-newest.
func (w *LaggedWMA) At(bars []models.Bar, i int) (float64, error) {
	if i >= len(bars) {
		return 0, fmt.Errorf("index %d out of range", i)
	}
	end := i - w.lag
	start := end - w.window + 1
	if start < 0 {
		return 0, apperrors.ErrInsufficientHistory
	}

	var sum float64
	for j := start; j <= end; j++ {
		weight := float64(j - start + 1)
		sum += bars[j].Open * weight
	}
	return sum / w.WeightSum(), nil
}

// Calculate returns the full lagged-WMA series; entries before MinIndex are
// zero.
func (w *LaggedWMA) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) < w.window+w.lag {
		return nil, apperrors.ErrInsufficientHistory
	}

	result := make([]float64, len(bars))
	for i := w.MinIndex(); i < len(bars); i++ {
		v, err := w.At(bars, i)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}
