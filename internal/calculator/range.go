package calculator

import (
	"errors"
	"math"

	"DivergenceSentinel/internal/model"
)

// RecentRange scans the most recent n rows and returns the highest high and lowest low.
func RecentRange(series *model.IndicatorSeries, n int) (high, low float64, err error) {
	if series.Len() == 0 {
		return 0, 0, errors.New("no rows provided")
	}
	if n <= 0 {
		return 0, 0, errors.New("window must be positive")
	}
	rows := series.Rows
	start := len(rows) - n
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < len(rows); i++ {
		if rows[i].High > high {
			high = rows[i].High
		}
		if rows[i].Low < low {
			low = rows[i].Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return clamp(pos, 0, 1), nil
}
