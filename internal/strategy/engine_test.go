package strategy

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"DivergenceSentinel/internal/model"
)

// divergenceSeries is a 40-row rising series with dips at rows 10 and 25
// that produce a strong bullish divergence.
func divergenceSeries() *model.IndicatorSeries {
	dates := dailyDates(40)
	rows := make([]model.IndicatorRow, 40)
	for i := range rows {
		r := &rows[i]
		r.Time = dates[i]
		r.Close = 60 + float64(i)*0.1
		r.Open, r.High, r.Low = r.Close, r.Close, r.Close
		r.Volume = 1000000
		r.MA5, r.MA10, r.MA20 = 60, 60, 60
	}
	rows[10].Close, rows[10].MACD, rows[10].MACDDif, rows[10].RSI = 52.0, -0.10, -0.08, 28
	rows[25].Close, rows[25].MACD, rows[25].MACDDif, rows[25].RSI = 49.5, 0.05, 0.02, 35
	rows[25].Volume = 1200000
	rows[39].MACDDif, rows[39].MACDSignal = 0.1, 0.05
	return &model.IndicatorSeries{Rows: rows}
}

func TestAnalyze_StrongDivergence(t *testing.T) {
	a, err := Analyze(divergenceSeries(), StandardScoring())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a.Lows, []int{10, 25}) {
		t.Fatalf("expected lows [10 25], got %v", a.Lows)
	}
	if a.Outcome.Level() != model.LevelStrong || !approx(a.Outcome.Result.Confidence, 0.9) {
		t.Errorf("expected strong 0.9, got %s %v", a.Outcome.Level(), a.Outcome.Result)
	}
	if a.Trend != model.TrendUp {
		t.Errorf("expected uptrend, got %s", a.Trend)
	}
	want := []string{adviceStrong, adviceCrossUp, adviceStopLoss}
	if !reflect.DeepEqual(a.Advice, want) {
		t.Errorf("expected advice %v, got %v", want, a.Advice)
	}
	if !a.Latest.Time.Equal(a.Series.Rows[39].Time) {
		t.Errorf("latest row mismatch")
	}
	if !approx(a.Range.Low, 60) || !approx(a.Range.High, 63.9) {
		t.Errorf("unexpected range %+v", a.Range)
	}
	if a.Range.Position <= 0.9 || a.Range.Position > 1 {
		t.Errorf("latest close should sit near the top of the range, got %v", a.Range.Position)
	}
}

func TestAnalyze_LookbackShiftsIndices(t *testing.T) {
	cfg := StandardScoring()
	cfg.Lookback = 25
	a, err := Analyze(divergenceSeries(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Lows, []int{25}) {
		t.Fatalf("expected only the low at row 25, got %v", a.Lows)
	}
	if a.Outcome.Found() || a.Outcome.Reason != model.ReasonTooFewLows {
		t.Errorf("expected too_few_lows, got %+v", a.Outcome)
	}
	if !reflect.DeepEqual(a.Advice, []string{adviceNone}) {
		t.Errorf("expected no-signal advice, got %v", a.Advice)
	}
}

func TestAnalyze_TooShort(t *testing.T) {
	series := &model.IndicatorSeries{Rows: divergenceSeries().Rows[:19]}
	_, err := Analyze(series, StandardScoring())
	if !model.IsDataQuality(err) {
		t.Fatalf("expected data-quality error, got %v", err)
	}
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalyze_InvalidConfig(t *testing.T) {
	cfg := StandardScoring()
	cfg.Window = -1
	if _, err := Analyze(divergenceSeries(), cfg); err == nil {
		t.Error("expected config error")
	}
}

func TestAnalyzeBars(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, 150)
	for i := range bars {
		c := 40 + 6*math.Sin(float64(i)/9) - float64(i)*0.03
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c * 1.02,
			Low:    c * 0.98,
			Close:  c,
			Volume: 500000 + float64(i%7)*10000,
		}
	}
	for _, cfg := range []ScoringConfig{StandardScoring(), RecentScoring()} {
		a, err := AnalyzeBars(bars, cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", cfg.Name, err)
		}
		if len(a.Advice) == 0 {
			t.Errorf("%s: expected advice", cfg.Name)
		}
		if a.Trend == model.TrendInsufficient {
			t.Errorf("%s: expected a trend for 150 rows", cfg.Name)
		}
		if len(a.Lows) == 0 {
			t.Errorf("%s: expected lows on an oscillating series", cfg.Name)
		}
		if res := a.Outcome.Result; res != nil {
			if len(res.Signals) < cfg.MinSignals || res.Confidence > cfg.StrongCap {
				t.Errorf("%s: inconsistent result %+v", cfg.Name, res)
			}
		}
	}

	bars[50].Close = math.NaN()
	if _, err := AnalyzeBars(bars, StandardScoring()); !model.IsDataQuality(err) {
		t.Errorf("expected data-quality error, got %v", err)
	}
}

func TestClassifyTrend(t *testing.T) {
	base := divergenceSeries()
	tests := []struct {
		name            string
		ma5, ma10, ma20 float64
		want            model.Trend
	}{
		{"averages below close", 60, 60, 60, model.TrendUp},
		{"two above close", 70, 70, 60, model.TrendRanging},
		{"all above close", 70, 70, 70, model.TrendDown},
		{"undefined averages", math.NaN(), math.NaN(), math.NaN(), model.TrendDown},
	}
	for _, tt := range tests {
		rows := append([]model.IndicatorRow(nil), base.Rows...)
		last := &rows[len(rows)-1]
		last.MA5, last.MA10, last.MA20 = tt.ma5, tt.ma10, tt.ma20
		if got := ClassifyTrend(&model.IndicatorSeries{Rows: rows}); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
	if got := ClassifyTrend(&model.IndicatorSeries{Rows: base.Rows[:10]}); got != model.TrendInsufficient {
		t.Errorf("expected insufficient data, got %s", got)
	}
}

func TestComposeAdvice(t *testing.T) {
	latest := model.IndicatorRow{MACDDif: -0.2, MACDSignal: -0.1}
	tests := []struct {
		level model.Level
		want  []string
	}{
		{model.LevelStrong, []string{adviceStrong, adviceCrossWait, adviceStopLoss}},
		{model.LevelMinor, []string{adviceMinor, adviceCrossWait, adviceStopLoss}},
		{model.LevelOrdinary, []string{adviceOrdinary, adviceCrossWait, adviceStopLoss}},
	}
	for _, tt := range tests {
		out := model.DivergenceOutcome{Result: &model.DivergenceResult{Level: tt.level}}
		if got := ComposeAdvice(out, latest); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.level, tt.want, got)
		}
	}

	none := model.DivergenceOutcome{Reason: model.ReasonNoNewLow}
	if got := ComposeAdvice(none, latest); !reflect.DeepEqual(got, []string{adviceNone}) {
		t.Errorf("expected no-signal advice, got %v", got)
	}
	if got := JoinAdvice([]string{"a", "b"}); got != "a | b" {
		t.Errorf("unexpected join %q", got)
	}
}
