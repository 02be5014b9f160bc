package model

import (
	"math"
	"time"
)

// IndicatorRow is one bar enriched with derived values.
// Derived fields are NaN while their rolling window lacks history.
type IndicatorRow struct {
	OHLCV

	MACDDif    float64 `json:"macd_dif"`
	MACDSignal float64 `json:"macd_signal"`
	MACD       float64 `json:"macd"` // dif - signal
	RSI        float64 `json:"rsi"`
	KDJK       float64 `json:"kdj_k"`
	KDJD       float64 `json:"kdj_d"`
	KDJJ       float64 `json:"kdj_j"`
	MA5        float64 `json:"ma5"`
	MA10       float64 `json:"ma10"`
	MA20       float64 `json:"ma20"`
	VolumeMA5  float64 `json:"volume_ma5"`
	VolumeMA10 float64 `json:"volume_ma10"`
}

// IndicatorSeries is the enriched, date-ascending series produced by the calculator.
// It is never mutated after construction.
type IndicatorSeries struct {
	Rows []IndicatorRow
}

// Len returns the number of rows.
func (s *IndicatorSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Latest returns the last row and false when the series is empty.
func (s *IndicatorSeries) Latest() (IndicatorRow, bool) {
	if s.Len() == 0 {
		return IndicatorRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}

// Closes returns the close prices.
func (s *IndicatorSeries) Closes() []float64 {
	out := make([]float64, s.Len())
	for i, r := range s.Rows {
		out[i] = r.Close
	}
	return out
}

// Dates returns the row dates.
func (s *IndicatorSeries) Dates() []time.Time {
	out := make([]time.Time, s.Len())
	for i, r := range s.Rows {
		out[i] = r.Time
	}
	return out
}

// Defined reports whether v carries a value (not NaN/Inf).
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
