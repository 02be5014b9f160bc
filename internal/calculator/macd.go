package calculator

// MACDSeries computes the MACD line (dif = fast EMA - slow EMA), its signal line
// (EMA of dif) and the histogram (dif - signal). Leading entries without enough
// history are NaN: dif from slow-1, signal and histogram from slow+signal-2.
func MACDSeries(closes []float64, fast, slow, signal int) (dif, sig, hist []float64) {
	n := len(closes)
	dif, sig, hist = nanSeries(n), nanSeries(n), nanSeries(n)
	if fast <= 0 || slow <= fast || signal <= 0 || n < slow {
		return dif, sig, hist
	}

	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	for i := slow - 1; i < n; i++ {
		dif[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is seeded from the first defined dif values only.
	signalEMA := EMASeries(dif[slow-1:], signal)
	for j, v := range signalEMA {
		i := slow - 1 + j
		sig[i] = v
		hist[i] = dif[i] - v
	}
	return dif, sig, hist
}
