package server

import (
	"time"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/scanner"
	"DivergenceSentinel/internal/strategy"
)

// Indicator values are pointers so that undefined readings encode as null.

type PivotResponse struct {
	Date   string   `json:"date"`
	Close  float64  `json:"close"`
	MACD   *float64 `json:"macd"`
	Dif    *float64 `json:"macd_dif"`
	RSI    *float64 `json:"rsi"`
	Volume float64  `json:"volume"`
}

type DivergenceResponse struct {
	Found       bool           `json:"found"`
	Level       model.Level    `json:"level"`
	LevelLabel  string         `json:"level_label"`
	Confidence  float64        `json:"confidence"`
	RawScore    float64        `json:"raw_score,omitempty"`
	Signals     []string       `json:"signals,omitempty"`
	Details     string         `json:"details,omitempty"`
	SpanDays    int            `json:"span_days,omitempty"`
	VolumeRatio float64        `json:"volume_ratio,omitempty"`
	PriceDrop   float64        `json:"price_drop,omitempty"`
	Older       *PivotResponse `json:"older,omitempty"`
	Newer       *PivotResponse `json:"newer,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	Explanation string         `json:"explanation,omitempty"`
}

type IndicatorResponse struct {
	MA5        *float64 `json:"ma5"`
	MA10       *float64 `json:"ma10"`
	MA20       *float64 `json:"ma20"`
	MACDDif    *float64 `json:"macd_dif"`
	MACDSignal *float64 `json:"macd_signal"`
	MACD       *float64 `json:"macd"`
	RSI        *float64 `json:"rsi"`
	KDJK       *float64 `json:"kdj_k"`
	KDJD       *float64 `json:"kdj_d"`
	KDJJ       *float64 `json:"kdj_j"`
	VolumeMA5  *float64 `json:"volume_ma5"`
}

type RangeResponse struct {
	Rows     int     `json:"rows"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Position float64 `json:"position"`
}

type AnalysisResponse struct {
	Code       string             `json:"code"`
	Name       string             `json:"name"`
	Source     string             `json:"source"`
	Date       string             `json:"date"`
	Close      float64            `json:"close"`
	Rows       int                `json:"rows"`
	Preset     string             `json:"preset"`
	Trend      model.Trend        `json:"trend"`
	TrendLabel string             `json:"trend_label"`
	Lows       []string           `json:"lows"`
	Range      RangeResponse      `json:"range"`
	Divergence DivergenceResponse `json:"divergence"`
	Indicators IndicatorResponse  `json:"indicators"`
	Advice     []string           `json:"advice"`
}

type ScanItemResponse struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Level      model.Level `json:"level,omitempty"`
	Confidence float64     `json:"confidence,omitempty"`
	Details    string      `json:"details,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type ScanResponse struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Symbols    int                `json:"symbols"`
	Found      int                `json:"found"`
	Failed     int                `json:"failed"`
	Items      []ScanItemResponse `json:"items"`
}

type AddRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name"`
}

const dateLayout = "2006-01-02"

func optional(v float64) *float64 {
	if !model.Defined(v) {
		return nil
	}
	return &v
}

func newPivotResponse(p model.PivotValues) *PivotResponse {
	return &PivotResponse{
		Date:   p.Date.Format(dateLayout),
		Close:  p.Close,
		MACD:   optional(p.Histogram),
		Dif:    optional(p.Dif),
		RSI:    optional(p.RSI),
		Volume: p.Volume,
	}
}

func newDivergenceResponse(o model.DivergenceOutcome) DivergenceResponse {
	res := o.Result
	if res == nil {
		return DivergenceResponse{
			Level:       model.LevelNone,
			LevelLabel:  model.LevelNone.Label(),
			Reason:      string(o.Reason),
			Explanation: o.Explanation,
		}
	}
	signals := make([]string, len(res.Signals))
	for i, s := range res.Signals {
		signals[i] = string(s)
	}
	return DivergenceResponse{
		Found:       true,
		Level:       res.Level,
		LevelLabel:  res.Level.Label(),
		Confidence:  res.Confidence,
		RawScore:    res.RawScore,
		Signals:     signals,
		Details:     res.Details,
		SpanDays:    res.SpanDays,
		VolumeRatio: res.VolumeRatio,
		PriceDrop:   res.PriceDrop,
		Older:       newPivotResponse(res.Older),
		Newer:       newPivotResponse(res.Newer),
	}
}

func newAnalysisResponse(rep *scanner.Report) AnalysisResponse {
	a := rep.Analysis
	return AnalysisResponse{
		Code:       rep.Code,
		Name:       rep.Name,
		Source:     rep.Source,
		Date:       a.Latest.Time.Format(dateLayout),
		Close:      a.Latest.Close,
		Rows:       a.Series.Len(),
		Preset:     a.Config.Name,
		Trend:      a.Trend,
		TrendLabel: a.Trend.Label(),
		Lows:       lowDates(a),
		Range: RangeResponse{
			Rows:     strategy.RangeRows,
			High:     a.Range.High,
			Low:      a.Range.Low,
			Position: a.Range.Position,
		},
		Divergence: newDivergenceResponse(a.Outcome),
		Indicators: IndicatorResponse{
			MA5:        optional(a.Latest.MA5),
			MA10:       optional(a.Latest.MA10),
			MA20:       optional(a.Latest.MA20),
			MACDDif:    optional(a.Latest.MACDDif),
			MACDSignal: optional(a.Latest.MACDSignal),
			MACD:       optional(a.Latest.MACD),
			RSI:        optional(a.Latest.RSI),
			KDJK:       optional(a.Latest.KDJK),
			KDJD:       optional(a.Latest.KDJD),
			KDJJ:       optional(a.Latest.KDJJ),
			VolumeMA5:  optional(a.Latest.VolumeMA5),
		},
		Advice: a.Advice,
	}
}

func lowDates(a *strategy.Analysis) []string {
	out := make([]string, len(a.Lows))
	for i, idx := range a.Lows {
		out[i] = a.Series.Rows[idx].Time.Format(dateLayout)
	}
	return out
}

func newScanResponse(report *scanner.ScanReport) ScanResponse {
	resp := ScanResponse{
		RunID:      report.RunID,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Symbols:    len(report.Reports),
		Found:      len(report.Found()),
		Failed:     len(report.Failed()),
		Items:      make([]ScanItemResponse, len(report.Reports)),
	}
	for i, rep := range report.Reports {
		item := ScanItemResponse{Code: rep.Code, Name: rep.Name}
		switch {
		case rep.Err != nil:
			item.Error = rep.Err.Error()
		case rep.Analysis.Outcome.Found():
			res := rep.Analysis.Outcome.Result
			item.Level, item.Confidence, item.Details = res.Level, res.Confidence, res.Details
		default:
			item.Level = model.LevelNone
			item.Details = rep.Analysis.Outcome.Explanation
		}
		resp.Items[i] = item
	}
	return resp
}
