package strategy

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"DivergenceSentinel/internal/model"
)

func dailyDates(n int) []time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// risingBaseline returns 20, 20.1, 20.2 ... so no index is a low on its own.
func risingBaseline(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 20 + float64(i)*0.1
	}
	return out
}

func TestFindRobustLows_ShortSeries(t *testing.T) {
	for _, n := range []int{0, 1, 10, 16} {
		prices := risingBaseline(n)
		lows, err := FindRobustLows(prices, dailyDates(n), 8, 10)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if len(lows) != 0 {
			t.Errorf("n=%d: expected no lows, got %v", n, lows)
		}
	}
}

func TestFindRobustLows_SpacingDropsLaterLowerLow(t *testing.T) {
	prices := risingBaseline(30)
	prices[5] = 5
	prices[8] = 3 // lower, but only 3 days after index 5
	prices[20] = 4

	lows, err := FindRobustLows(prices, dailyDates(30), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{5, 20}; !reflect.DeepEqual(lows, want) {
		t.Errorf("expected %v, got %v", want, lows)
	}
}

func TestFindRobustLows_TiesCount(t *testing.T) {
	prices := risingBaseline(20)
	prices[5] = 5
	prices[6] = 5

	lows, err := FindRobustLows(prices, dailyDates(20), 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{5, 6}; !reflect.DeepEqual(lows, want) {
		t.Errorf("expected %v, got %v", want, lows)
	}

	lows, err = FindRobustLows(prices, dailyDates(20), 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{5}; !reflect.DeepEqual(lows, want) {
		t.Errorf("expected %v with spacing, got %v", want, lows)
	}
}

func TestFindRobustLows_SpacingUsesCalendarDays(t *testing.T) {
	prices := risingBaseline(30)
	prices[5] = 5
	prices[12] = 4
	dates := dailyDates(30)
	// Rows 5 and 12 are seven rows apart but eleven calendar days apart.
	for i := 6; i < len(dates); i++ {
		dates[i] = dates[i].AddDate(0, 0, 4)
	}

	lows, err := FindRobustLows(prices, dates, 2, 10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{5, 12}; !reflect.DeepEqual(lows, want) {
		t.Errorf("expected %v, got %v", want, lows)
	}
}

func TestFindRobustLows_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const window, minDays = 8, 10
	for run := 0; run < 20; run++ {
		n := 60 + rng.Intn(240)
		prices := make([]float64, n)
		p := 50.0
		for i := range prices {
			p += rng.NormFloat64()
			if p < 1 {
				p = 1
			}
			prices[i] = p
		}
		dates := dailyDates(n)

		lows, err := FindRobustLows(prices, dates, window, minDays)
		if err != nil {
			t.Fatal(err)
		}
		for k, idx := range lows {
			if idx < window || idx >= n-window {
				t.Fatalf("run %d: index %d outside scan range", run, idx)
			}
			for j := idx - window; j <= idx+window; j++ {
				if prices[idx] > prices[j] {
					t.Fatalf("run %d: index %d is not a local minimum (price %v > %v at %d)", run, idx, prices[idx], prices[j], j)
				}
			}
			if k > 0 {
				if lows[k-1] >= idx {
					t.Fatalf("run %d: lows not ascending: %v", run, lows)
				}
				if gap := daysBetween(dates[lows[k-1]], dates[idx]); gap < minDays {
					t.Fatalf("run %d: lows %d and %d only %d days apart", run, lows[k-1], idx, gap)
				}
			}
		}
	}
}

func TestFindRobustLows_Errors(t *testing.T) {
	_, err := FindRobustLows([]float64{1, 2, 3}, dailyDates(2), 1, 0)
	var dq *model.DataQualityError
	if !errors.As(err, &dq) {
		t.Errorf("expected DataQualityError for length mismatch, got %v", err)
	}
	if _, err := FindRobustLows([]float64{1}, dailyDates(1), 0, 0); err == nil {
		t.Error("expected error for zero window")
	}
	if _, err := FindRobustLows([]float64{1}, dailyDates(1), 1, -1); err == nil {
		t.Error("expected error for negative spacing")
	}
}

func TestRecentWindow(t *testing.T) {
	tests := []struct {
		n, lookback, want int
	}{
		{300, 150, 150},
		{150, 150, 0},
		{100, 150, 0},
		{300, 0, 0},
	}
	for _, tt := range tests {
		if got := RecentWindow(tt.n, tt.lookback); got != tt.want {
			t.Errorf("RecentWindow(%d, %d) = %d, want %d", tt.n, tt.lookback, got, tt.want)
		}
	}
}
