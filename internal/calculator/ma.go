package calculator

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// SMASeries returns the rolling simple moving average aligned with values.
// The first period-1 entries are NaN.
func SMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	sma := talib.Sma(values, period)
	copy(out[period-1:], sma[period-1:])
	return out
}

// EMASeries returns the SMA-seeded exponential moving average aligned with values.
// The first period-1 entries are NaN.
func EMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	ema := talib.Ema(values, period)
	copy(out[period-1:], ema[period-1:])
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
