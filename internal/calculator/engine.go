package calculator

import (
	"DivergenceSentinel/internal/model"
)

// Standard indicator periods.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	RSIPeriod  = 14
	KDJPeriod  = 9
	KDJSmooth  = 3
)

// Compute validates bars and derives the full IndicatorSeries.
// The input is not modified; the output has the same length and order.
func Compute(bars []model.OHLCV) (*model.IndicatorSeries, error) {
	if err := Validate(bars); err != nil {
		return nil, err
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	dif, sig, hist := MACDSeries(closes, MACDFast, MACDSlow, MACDSignal)
	rsi := RSISeries(closes, RSIPeriod)
	k, d, j := KDJSeries(highs, lows, closes, KDJPeriod, KDJSmooth)
	ma5 := SMASeries(closes, 5)
	ma10 := SMASeries(closes, 10)
	ma20 := SMASeries(closes, 20)
	vma5 := SMASeries(volumes, 5)
	vma10 := SMASeries(volumes, 10)

	rows := make([]model.IndicatorRow, n)
	for i, b := range bars {
		rows[i] = model.IndicatorRow{
			OHLCV:      b,
			MACDDif:    dif[i],
			MACDSignal: sig[i],
			MACD:       hist[i],
			RSI:        rsi[i],
			KDJK:       k[i],
			KDJD:       d[i],
			KDJJ:       j[i],
			MA5:        ma5[i],
			MA10:       ma10[i],
			MA20:       ma20[i],
			VolumeMA5:  vma5[i],
			VolumeMA10: vma10[i],
		}
	}
	return &model.IndicatorSeries{Rows: rows}, nil
}
