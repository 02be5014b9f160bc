package calculator

import (
	"fmt"

	"DivergenceSentinel/internal/model"
)

// Validate checks that every bar is complete and dates are strictly increasing.
// The first problem found is returned as a *model.DataQualityError.
func Validate(bars []model.OHLCV) error {
	if len(bars) == 0 {
		return &model.DataQualityError{Reason: "empty series", Cause: model.ErrInsufficientData}
	}
	for i, b := range bars {
		if b.Time.IsZero() {
			return &model.DataQualityError{Field: "date", Index: i, Reason: "missing"}
		}
		for _, f := range []struct {
			name string
			v    float64
		}{{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}} {
			if !model.Defined(f.v) {
				return &model.DataQualityError{Field: f.name, Index: i, Reason: "missing"}
			}
			if f.v <= 0 {
				return &model.DataQualityError{Field: f.name, Index: i, Reason: fmt.Sprintf("must be positive, got %v", f.v)}
			}
		}
		if !model.Defined(b.Volume) {
			return &model.DataQualityError{Field: "volume", Index: i, Reason: "missing"}
		}
		if b.Volume < 0 {
			return &model.DataQualityError{Field: "volume", Index: i, Reason: fmt.Sprintf("must be non-negative, got %v", b.Volume)}
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return &model.DataQualityError{
				Field:  "date",
				Index:  i,
				Reason: fmt.Sprintf("not after previous bar (%s <= %s)", b.Time.Format("2006-01-02"), bars[i-1].Time.Format("2006-01-02")),
			}
		}
	}
	return nil
}
