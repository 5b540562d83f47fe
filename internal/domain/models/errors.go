package models

import (
	"errors"
	"fmt"
)

// Error taxonomy of the prediction core. Every failure path in the core maps
// to one of these kinds; nothing escapes as an unclassified error.
var (
	// ErrDataUnavailable: a provider or store cannot answer (unknown symbol,
	// outage). Propagates to the caller.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInsufficientData: the fusion window is shorter than the minimum.
	// Propagates to the caller.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotTrained: inference requested before any successful training.
	// Expected state; surfaced as a "no prediction yet" result, not a failure.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrTrainingInProgress: a training job for the symbol is already running.
	// The request is rejected, never queued.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrScoringUnavailable: the sentiment classifier cannot be invoked.
	// Absorbed locally; callers degrade to neutral sentiment.
	ErrScoringUnavailable = errors.New("sentiment scoring unavailable")
)

// TrainingFailedError carries the captured reason of a failed training run.
type TrainingFailedError struct {
	Symbol string
	Reason string
	Err    error
}

func (e *TrainingFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("training failed for %s: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("training failed for %s: %s", e.Symbol, e.Reason)
}

func (e *TrainingFailedError) Unwrap() error { return e.Err }

// NewTrainingFailed wraps err as a training failure with a reason.
func NewTrainingFailed(symbol, reason string, err error) *TrainingFailedError {
	return &TrainingFailedError{Symbol: symbol, Reason: reason, Err: err}
}
