package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks structurally invalid input: an empty series,
	// dates out of order, or a zero-length window.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingFundamentals marks an absent fundamentals or news record.
	// The affected narration key or chart is skipped, the run continues.
	ErrMissingFundamentals = errors.New("missing fundamentals")

	// ErrInsufficientHistory annotates a series shorter than an indicator's
	// lookback. Indicators absorb it by returning all-undefined output.
	ErrInsufficientHistory = errors.New("insufficient history")
)

// RenderError reports a chart that could not be produced
type RenderError struct {
	Kind ChartKind
	Name string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s chart %q: %v", e.Kind, e.Name, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
