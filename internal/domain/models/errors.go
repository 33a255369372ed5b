package models

import (
	"errors"
	"fmt"
)

// Data errors: malformed or ambiguous provider input.
var (
	ErrUnsortable          = errors.New("series: ambiguous or invalid timestamps")
	ErrEmptySeries         = errors.New("series: no observations")
	ErrInsufficientHistory = errors.New("series: insufficient history")
)

// Provider errors: upstream fetch failures, classified for retry policy.
var (
	ErrRateLimited = errors.New("provider: rate limited")
	ErrNotFound    = errors.New("provider: symbol not found")
	ErrTimeout     = errors.New("provider: timeout")
)

// Forecast errors.
var (
	ErrModelDivergence = errors.New("forecast: model divergence")
)

// SchemaError means the assembled artifact failed completeness or shape
// validation. It is a run-level error and blocks publication.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string { return "artifact schema: " + e.Reason }

// StageError carries ticker + stage + cause so no failure is reported bare.
type StageError struct {
	Symbol string
	Stage  string
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Symbol, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the ticker and pipeline stage it failed in.
func NewStageError(symbol, stage string, err error) *StageError {
	return &StageError{Symbol: symbol, Stage: stage, Err: err}
}
