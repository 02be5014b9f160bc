package strategy

import "DivergenceSentinel/internal/model"

// minTrendRows is the history needed for MA20 on the latest row.
const minTrendRows = 20

// ClassifyTrend scores the latest close against MA5, MA10 and MA20.
// Two or more closes above their average is an uptrend, one is ranging, none is a downtrend.
func ClassifyTrend(series *model.IndicatorSeries) model.Trend {
	if series.Len() < minTrendRows {
		return model.TrendInsufficient
	}
	latest, _ := series.Latest()

	score := 0
	for _, ma := range []float64{latest.MA5, latest.MA10, latest.MA20} {
		if latest.Close > ma {
			score++
		}
	}
	switch {
	case score >= 2:
		return model.TrendUp
	case score == 1:
		return model.TrendRanging
	default:
		return model.TrendDown
	}
}
