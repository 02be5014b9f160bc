package model

import (
	"errors"
	"fmt"
)

// ErrInsufficientData marks a series too short for the requested computation.
var ErrInsufficientData = errors.New("insufficient data")

// DataQualityError reports malformed input: missing fields, non-monotonic dates
// or a series too short for analysis. It is fatal to the current analysis.
type DataQualityError struct {
	Field  string
	Index  int
	Reason string
	Cause  error
}

func (e *DataQualityError) Error() string {
	msg := "data quality: " + e.Reason
	if e.Field != "" {
		msg = fmt.Sprintf("data quality: %s at row %d: %s", e.Field, e.Index, e.Reason)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *DataQualityError) Unwrap() error {
	return e.Cause
}

// IsDataQuality reports whether err is, or wraps, a DataQualityError.
func IsDataQuality(err error) bool {
	var dq *DataQualityError
	return errors.As(err, &dq)
}
