package sales

import (
	"errors"
	"fmt"
)

// ErrInsufficientHistory is returned by a predictor when the monthly series is
// shorter than the model's minimum. Callers treat it as "forecast unavailable".
var ErrInsufficientHistory = errors.New("insufficient history")

// ErrNonFiniteSeries is returned by a predictor when the series or its fitted
// model leaves the finite range. Callers treat it like ErrInsufficientHistory.
var ErrNonFiniteSeries = errors.New("series is not finite")

// DataError reports that no usable records remain to aggregate.
type DataError struct {
	Msg string
}

func (e *DataError) Error() string {
	return "data error: " + e.Msg
}

// IngestionError reports unreadable or entirely unusable input.
type IngestionError struct {
	Source string
	Err    error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("failed to ingest %s: %v", e.Source, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// PersistenceError reports that a finished report could not be stored.
type PersistenceError struct {
	Destination string
	Err         error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist report to %s: %v", e.Destination, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
