package domain

import "errors"

// Sentinel errors shared by the forecasting pipeline. Callers match them with
// errors.Is; call sites add context with fmt.Errorf("...: %w", err).
var (
	// ErrInvalidArgument reports a bad count, horizon, fraction or empty input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch reports feature/target row counts that differ, ragged
	// feature rows, or a feature width that does not match a fitted scaler.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInsufficientData reports fewer rows than cross-validation folds.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrModelNotTrained reports evaluation or forecasting without a fitted pipeline.
	ErrModelNotTrained = errors.New("model not trained")

	// ErrUnknownCategory reports a categorical value absent from the fitted vocabulary.
	ErrUnknownCategory = errors.New("unknown category")
)
