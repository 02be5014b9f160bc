package strategy

import (
	"fmt"

	"DivergenceSentinel/internal/calculator"
	"DivergenceSentinel/internal/model"
)

// RangeRows is the number of recent rows used for the price range.
const RangeRows = 60

// PriceRange is the recent high/low band and where the latest close sits in it.
type PriceRange struct {
	High     float64
	Low      float64
	Position float64 // 0 at the low, 1 at the high
}

// Analysis is the full result of one run over an indicator series.
type Analysis struct {
	Series  *model.IndicatorSeries
	Config  ScoringConfig
	Lows    []int
	Outcome model.DivergenceOutcome
	Trend   model.Trend
	Advice  []string
	Latest  model.IndicatorRow
	Range   PriceRange
}

// Analyze finds the lows on the close prices, scores the divergence between
// the last two, classifies the trend and composes the advice.
func Analyze(series *model.IndicatorSeries, cfg ScoringConfig) (*Analysis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring config: %w", err)
	}
	n := series.Len()
	if n < cfg.MinRows {
		return nil, &model.DataQualityError{
			Reason: fmt.Sprintf("%d rows, need at least %d", n, cfg.MinRows),
			Cause:  model.ErrInsufficientData,
		}
	}

	start := RecentWindow(n, cfg.Lookback)
	lows, err := FindRobustLows(series.Closes()[start:], series.Dates()[start:], cfg.Window, cfg.MinSpacingDays)
	if err != nil {
		return nil, fmt.Errorf("find lows: %w", err)
	}
	for i := range lows {
		lows[i] += start
	}

	outcome := ScoreDivergence(series, lows, cfg)
	latest, _ := series.Latest()
	pr, err := recentRange(series, latest.Close)
	if err != nil {
		return nil, fmt.Errorf("price range: %w", err)
	}
	return &Analysis{
		Series:  series,
		Config:  cfg,
		Lows:    lows,
		Outcome: outcome,
		Trend:   ClassifyTrend(series),
		Advice:  ComposeAdvice(outcome, latest),
		Latest:  latest,
		Range:   pr,
	}, nil
}

func recentRange(series *model.IndicatorSeries, last float64) (PriceRange, error) {
	high, low, err := calculator.RecentRange(series, RangeRows)
	if err != nil {
		return PriceRange{}, err
	}
	pos, err := calculator.RangePosition(last, high, low)
	if err != nil {
		return PriceRange{}, err
	}
	return PriceRange{High: high, Low: low, Position: pos}, nil
}

// AnalyzeBars computes the indicators for raw bars and analyzes them.
func AnalyzeBars(bars []model.OHLCV, cfg ScoringConfig) (*Analysis, error) {
	series, err := calculator.Compute(bars)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	return Analyze(series, cfg)
}
