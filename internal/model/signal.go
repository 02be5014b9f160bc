package model

import "time"

// Level grades a bullish divergence by how many MACD-family conditions confirm it.
type Level string

const (
	LevelNone     Level = "none"
	LevelOrdinary Level = "ordinary"
	LevelMinor    Level = "minor"
	LevelStrong   Level = "strong"
)

// Label returns the display label used in reports.
func (l Level) Label() string {
	switch l {
	case LevelStrong:
		return "强烈背离"
	case LevelMinor:
		return "小背离"
	case LevelOrdinary:
		return "背离"
	default:
		return "无背离"
	}
}

// SignalName identifies one corroborating condition.
type SignalName string

const (
	SignalHistogram SignalName = "macd_histogram"
	SignalDif       SignalName = "macd_dif"
	SignalRSI       SignalName = "rsi"
	SignalVolume    SignalName = "volume"
	SignalPriceDrop SignalName = "price_drop"
)

// Label returns the display label used in reports.
func (s SignalName) Label() string {
	switch s {
	case SignalHistogram:
		return "MACD柱状线背离"
	case SignalDif:
		return "DIF线背离"
	case SignalRSI:
		return "RSI背离"
	case SignalVolume:
		return "成交量配合"
	case SignalPriceDrop:
		return "价格有效新低"
	default:
		return string(s)
	}
}

// PivotValues are the raw indicator readings at one accepted minimum.
type PivotValues struct {
	Index     int       `json:"index"`
	Date      time.Time `json:"date"`
	Close     float64   `json:"close"`
	Histogram float64   `json:"macd"`
	Dif       float64   `json:"macd_dif"`
	RSI       float64   `json:"rsi"`
	Volume    float64   `json:"volume"`
}

// DivergenceResult is a confirmed bullish divergence between the two most recent minima.
type DivergenceResult struct {
	Older       PivotValues  `json:"older"`
	Newer       PivotValues  `json:"newer"`
	Signals     []SignalName `json:"signals"`
	MACDTally   int          `json:"macd_tally"`
	RawScore    float64      `json:"raw_score"`
	Confidence  float64      `json:"confidence"`
	Level       Level        `json:"level"`
	Details     string       `json:"details"`
	SpanDays    int          `json:"span_days"`
	VolumeRatio float64      `json:"volume_ratio"`
	PriceDrop   float64      `json:"price_drop"`
}

// NoDivergenceReason says which gate stopped the scorer.
type NoDivergenceReason string

const (
	ReasonTooFewLows  NoDivergenceReason = "too_few_lows"
	ReasonNoNewLow    NoDivergenceReason = "no_new_low"
	ReasonWeakSignals NoDivergenceReason = "insufficient_signals"
)

// DivergenceOutcome is either a populated Result or a structured negative answer.
// A negative outcome is a normal analysis result, not an error.
type DivergenceOutcome struct {
	Result      *DivergenceResult  `json:"result,omitempty"`
	Reason      NoDivergenceReason `json:"reason,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
}

// Found reports whether a divergence was detected.
func (o DivergenceOutcome) Found() bool { return o.Result != nil }

// Level returns the result level, or LevelNone for a negative outcome.
func (o DivergenceOutcome) Level() Level {
	if o.Result == nil {
		return LevelNone
	}
	return o.Result.Level
}

// Trend is the short-term trend classification of the latest bar.
type Trend string

const (
	TrendUp           Trend = "uptrend"
	TrendRanging      Trend = "ranging"
	TrendDown         Trend = "downtrend"
	TrendInsufficient Trend = "insufficient_data"
)

// Label returns the display label used in reports.
func (t Trend) Label() string {
	switch t {
	case TrendUp:
		return "短期上升趋势"
	case TrendRanging:
		return "震荡趋势"
	case TrendDown:
		return "下跌趋势"
	default:
		return "数据不足"
	}
}
