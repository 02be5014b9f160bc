package calculator

import (
	talib "github.com/markcheno/go-talib"
)

// KDJSeries computes the stochastic K (fast %K over n bars), D (m-bar SMA of K)
// and J = 3K - 2D. Entries before n+m-2 are NaN.
func KDJSeries(highs, lows, closes []float64, n, m int) (k, d, j []float64) {
	size := len(closes)
	k, d, j = nanSeries(size), nanSeries(size), nanSeries(size)
	start := n + m - 2
	if n <= 0 || m <= 0 || size <= start || len(highs) != size || len(lows) != size {
		return k, d, j
	}
	fastK, fastD := talib.StochF(highs, lows, closes, n, m, talib.SMA)
	for i := start; i < size; i++ {
		k[i] = fastK[i]
		d[i] = fastD[i]
		j[i] = 3*fastK[i] - 2*fastD[i]
	}
	return k, d, j
}
