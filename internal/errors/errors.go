// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Standard sentinel errors
var (
	// ErrInsufficientHistory means too few sessions exist to compute an
	// indicator window. The day is skipped; the ledger must not change.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInsufficientCapital means a BUY signal sized to zero shares. The
	// transition is downgraded to HOLD, never failed.
	ErrInsufficientCapital = errors.New("insufficient capital")
	// ErrStateNotFound means no persisted ledger exists for the trader id.
	ErrStateNotFound = errors.New("state not found")
	// ErrVersionConflict means a concurrent save won the persistence race.
	// Callers must retry from a fresh load, never blindly overwrite.
	ErrVersionConflict = errors.New("state version conflict")
	ErrMisalignedData  = errors.New("misaligned price series")
	ErrConfigInvalid   = errors.New("invalid configuration")
)

// TransitionError represents an illegal position transition. It indicates a
// logic defect upstream of the ledger and is fatal for the step.
type TransitionError struct {
	From   string
	Action string
	Date   time.Time
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s while %s on %s", e.Action, e.From, e.Date.Format("2006-01-02"))
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, action string, date time.Time) *TransitionError {
	return &TransitionError{From: from, Action: action, Date: date}
}

// DataError represents a problem with an input price series.
type DataError struct {
	Instrument string
	Message    string
	Err        error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s]: %s: %v", e.Instrument, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s]: %s", e.Instrument, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(instrument, message string, err error) *DataError {
	return &DataError{Instrument: instrument, Message: message, Err: err}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
