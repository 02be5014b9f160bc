package strategy

import (
	"fmt"
	"math"

	"DivergenceSentinel/internal/model"
)

// condition is one weighted check between the older and the newer low.
type condition struct {
	name   model.SignalName
	weight float64
	macd   bool
	hit    bool
}

// ScoreDivergence compares the two most recent lows and grades the bullish
// divergence between them. lows must be ascending row indices into series.
// A missing signal is reported through the outcome, never as an error.
func ScoreDivergence(series *model.IndicatorSeries, lows []int, cfg ScoringConfig) model.DivergenceOutcome {
	valid := make([]int, 0, len(lows))
	for _, idx := range lows {
		if idx >= 0 && idx < series.Len() {
			valid = append(valid, idx)
		}
	}
	if len(valid) < 2 {
		return model.DivergenceOutcome{
			Reason:      model.ReasonTooFewLows,
			Explanation: fmt.Sprintf("仅找到%d个有效低点，至少需要2个", len(valid)),
		}
	}

	idx1, idx2 := valid[len(valid)-2], valid[len(valid)-1]
	older, newer := series.Rows[idx1], series.Rows[idx2]
	if !(newer.Close < older.Close) {
		return model.DivergenceOutcome{
			Reason: model.ReasonNoNewLow,
			Explanation: fmt.Sprintf("最近低点 %s %.2f 未低于前低 %s %.2f",
				newer.Time.Format("01-02"), newer.Close, older.Time.Format("01-02"), older.Close),
		}
	}

	volumeRatio := 1.0
	volumeOK := false
	if older.Volume > 0 {
		volumeRatio = newer.Volume / older.Volume
		volumeOK = volumeRatio < cfg.VolumeRatioMax
	}
	drop := (older.Close - newer.Close) / older.Close

	conds := []condition{
		{model.SignalHistogram, WeightHistogram, true, newer.MACD > older.MACD},
		{model.SignalDif, WeightDif, true, newer.MACDDif > older.MACDDif},
		{model.SignalRSI, WeightRSI, false, newer.RSI > older.RSI},
		{model.SignalVolume, WeightVolume, false, volumeOK},
		{model.SignalPriceDrop, WeightPriceDrop, false, drop > cfg.DropThreshold},
	}

	var (
		signals []model.SignalName
		score   float64
		tally   int
	)
	for _, c := range conds {
		if !c.hit {
			continue
		}
		signals = append(signals, c.name)
		score += c.weight
		if c.macd {
			tally++
		}
	}

	if len(signals) < cfg.MinSignals {
		return model.DivergenceOutcome{
			Reason:      model.ReasonWeakSignals,
			Explanation: fmt.Sprintf("仅%d个信号成立，至少需要%d个", len(signals), cfg.MinSignals),
		}
	}

	level, confidence := classify(tally, score, cfg)
	result := &model.DivergenceResult{
		Older:       pivot(idx1, older),
		Newer:       pivot(idx2, newer),
		Signals:     signals,
		MACDTally:   tally,
		RawScore:    round4(score),
		Confidence:  round4(confidence),
		Level:       level,
		Details:     fmt.Sprintf("%s %.2f → %s %.2f", older.Time.Format("01-02"), older.Close, newer.Time.Format("01-02"), newer.Close),
		SpanDays:    daysBetween(older.Time, newer.Time),
		VolumeRatio: volumeRatio,
		PriceDrop:   drop,
	}
	return model.DivergenceOutcome{Result: result}
}

// classify maps the MACD tally to a level and scales the summed weights.
func classify(tally int, score float64, cfg ScoringConfig) (model.Level, float64) {
	switch tally {
	case 2:
		return model.LevelStrong, math.Min(score, cfg.StrongCap)
	case 1:
		return model.LevelMinor, math.Min(score*cfg.MinorMultiplier, cfg.MinorCap)
	default:
		return model.LevelOrdinary, math.Min(score*cfg.OrdinaryMultiplier, cfg.OrdinaryCap)
	}
}

func pivot(idx int, row model.IndicatorRow) model.PivotValues {
	return model.PivotValues{
		Index:     idx,
		Date:      row.Time,
		Close:     row.Close,
		Histogram: row.MACD,
		Dif:       row.MACDDif,
		RSI:       row.RSI,
		Volume:    row.Volume,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
