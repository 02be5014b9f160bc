package calculator

import (
	talib "github.com/markcheno/go-talib"
)

// RSISeries computes the Wilder-smoothed RSI over closes.
// The first period entries are NaN; defined values are bounded to [0, 100].
func RSISeries(closes []float64, period int) []float64 {
	out := nanSeries(len(closes))
	if period < 2 || len(closes) < period+1 {
		return out
	}
	rsi := talib.Rsi(closes, period)
	for i := period; i < len(closes); i++ {
		out[i] = clamp(rsi[i], 0, 100)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
