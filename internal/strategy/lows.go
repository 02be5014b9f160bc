package strategy

import (
	"fmt"
	"time"

	"DivergenceSentinel/internal/model"
)

// FindRobustLows returns, in ascending order, the indices of prices that are
// lower than or equal to the window prices on each side and at least minDays
// calendar days after the previously accepted low.
//
// A candidate that falls inside the spacing window of an accepted low is
// dropped for good, even when it is lower than the accepted one.
func FindRobustLows(prices []float64, dates []time.Time, window, minDays int) ([]int, error) {
	if len(prices) != len(dates) {
		return nil, &model.DataQualityError{
			Field:  "date",
			Index:  min(len(prices), len(dates)),
			Reason: fmt.Sprintf("%d prices but %d dates", len(prices), len(dates)),
		}
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if minDays < 0 {
		return nil, fmt.Errorf("minimum spacing must be non-negative, got %d", minDays)
	}

	n := len(prices)
	lows := []int{}
	if n < 2*window+1 {
		return lows, nil
	}

	for i := window; i < n-window; i++ {
		p := prices[i]
		if p > minOf(prices[i-window:i]) || p > minOf(prices[i+1:i+window+1]) {
			continue
		}
		if len(lows) > 0 && daysBetween(dates[lows[len(lows)-1]], dates[i]) < minDays {
			continue
		}
		lows = append(lows, i)
	}
	return lows, nil
}

// RecentWindow returns the start offset that keeps only the last lookback
// rows of an n-row series. A non-positive lookback keeps everything.
func RecentWindow(n, lookback int) int {
	if lookback <= 0 || n <= lookback {
		return 0
	}
	return n - lookback
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// daysBetween counts calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
