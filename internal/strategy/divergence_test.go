package strategy

import (
	"math"
	"reflect"
	"testing"

	"DivergenceSentinel/internal/model"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// pivotSeries builds a 30-row series with lows at rows 10 and 25.
func pivotSeries(older, newer model.IndicatorRow) *model.IndicatorSeries {
	dates := dailyDates(30)
	rows := make([]model.IndicatorRow, 30)
	for i := range rows {
		rows[i].Time = dates[i]
		rows[i].Close = 60
		rows[i].Volume = 1000000
	}
	older.Time, newer.Time = dates[10], dates[25]
	rows[10], rows[25] = older, newer
	return &model.IndicatorSeries{Rows: rows}
}

func row(close, hist, dif, rsi, volume float64) model.IndicatorRow {
	r := model.IndicatorRow{MACD: hist, MACDDif: dif, RSI: rsi}
	r.Close = close
	r.Volume = volume
	return r
}

func TestScoreDivergence_StrongScenario(t *testing.T) {
	series := pivotSeries(row(52.0, -0.10, -0.08, 28, 1000000), row(49.5, 0.05, 0.02, 35, 1200000))
	out := ScoreDivergence(series, []int{10, 25}, StandardScoring())
	if !out.Found() {
		t.Fatalf("expected divergence, got %s: %s", out.Reason, out.Explanation)
	}
	res := out.Result
	want := []model.SignalName{model.SignalHistogram, model.SignalDif, model.SignalRSI, model.SignalVolume}
	if !reflect.DeepEqual(res.Signals, want) {
		t.Errorf("expected signals %v, got %v", want, res.Signals)
	}
	if res.MACDTally != 2 || res.Level != model.LevelStrong {
		t.Errorf("expected strong with tally 2, got %s tally %d", res.Level, res.MACDTally)
	}
	if !approx(res.Confidence, 0.90) {
		t.Errorf("expected confidence 0.90, got %v", res.Confidence)
	}
	if !approx(res.VolumeRatio, 1.2) {
		t.Errorf("expected volume ratio 1.2, got %v", res.VolumeRatio)
	}
	if res.SpanDays != 15 {
		t.Errorf("expected span 15 days, got %d", res.SpanDays)
	}
	if res.Details != "01-11 52.00 → 01-26 49.50" {
		t.Errorf("unexpected details %q", res.Details)
	}
	if res.Older.Index != 10 || res.Newer.Index != 25 || res.Newer.RSI != 35 {
		t.Errorf("unexpected pivots %+v %+v", res.Older, res.Newer)
	}
}

func TestScoreDivergence_OrdinaryScenario(t *testing.T) {
	older := row(52.0, -0.10, -0.08, 28, 1000000)
	newer := row(48.88, -0.20, -0.10, 25, 1200000)
	series := pivotSeries(older, newer)

	tests := []struct {
		name string
		cfg  ScoringConfig
		want float64
	}{
		{"standard", StandardScoring(), 0.2},
		{"recent", RecentScoring(), 0.12},
	}
	for _, tt := range tests {
		out := ScoreDivergence(series, []int{10, 25}, tt.cfg)
		if !out.Found() {
			t.Fatalf("%s: expected divergence, got %s", tt.name, out.Reason)
		}
		want := []model.SignalName{model.SignalVolume, model.SignalPriceDrop}
		if !reflect.DeepEqual(out.Result.Signals, want) {
			t.Errorf("%s: expected %v, got %v", tt.name, want, out.Result.Signals)
		}
		if out.Level() != model.LevelOrdinary {
			t.Errorf("%s: expected ordinary, got %s", tt.name, out.Level())
		}
		if !approx(out.Result.Confidence, tt.want) {
			t.Errorf("%s: expected confidence %v, got %v", tt.name, tt.want, out.Result.Confidence)
		}
	}
}

func TestScoreDivergence_Minor(t *testing.T) {
	series := pivotSeries(row(52.0, -0.10, -0.08, 28, 1000000), row(51.0, 0.05, -0.09, 25, 1000000))
	out := ScoreDivergence(series, []int{10, 25}, StandardScoring())
	if out.Level() != model.LevelMinor {
		t.Fatalf("expected minor, got %s (%s)", out.Level(), out.Reason)
	}
	// histogram 0.3 + volume 0.1, scaled by 0.7
	if !approx(out.Result.Confidence, 0.28) {
		t.Errorf("expected confidence 0.28, got %v", out.Result.Confidence)
	}
}

func TestScoreDivergence_NegativeOutcomes(t *testing.T) {
	cfg := StandardScoring()
	tests := []struct {
		name   string
		series *model.IndicatorSeries
		lows   []int
		reason model.NoDivergenceReason
	}{
		{
			"single low",
			pivotSeries(row(52, 0, 0, 30, 1), row(50, 1, 1, 40, 1)),
			[]int{25},
			model.ReasonTooFewLows,
		},
		{
			"out of range indices",
			pivotSeries(row(52, 0, 0, 30, 1), row(50, 1, 1, 40, 1)),
			[]int{25, 99},
			model.ReasonTooFewLows,
		},
		{
			"equal low",
			pivotSeries(row(52, 0, 0, 30, 1), row(52, 1, 1, 40, 1)),
			[]int{10, 25},
			model.ReasonNoNewLow,
		},
		{
			"higher low",
			pivotSeries(row(52, 0, 0, 30, 1), row(53, 1, 1, 40, 1)),
			[]int{10, 25},
			model.ReasonNoNewLow,
		},
		{
			"single signal",
			pivotSeries(row(52, -0.1, 0, 30, 1000000), row(51.9, 0.1, -0.1, 20, 2000000)),
			[]int{10, 25},
			model.ReasonWeakSignals,
		},
	}
	for _, tt := range tests {
		out := ScoreDivergence(tt.series, tt.lows, cfg)
		if out.Found() {
			t.Errorf("%s: expected no divergence, got %+v", tt.name, out.Result)
			continue
		}
		if out.Reason != tt.reason {
			t.Errorf("%s: expected reason %s, got %s", tt.name, tt.reason, out.Reason)
		}
		if out.Explanation == "" {
			t.Errorf("%s: expected an explanation", tt.name)
		}
	}
}

func TestScoreDivergence_ZeroVolumeFailsSafe(t *testing.T) {
	series := pivotSeries(row(52.0, -0.10, -0.08, 28, 0), row(49.5, 0.05, 0.02, 35, 1000000))
	out := ScoreDivergence(series, []int{10, 25}, StandardScoring())
	if !out.Found() {
		t.Fatalf("expected divergence, got %s", out.Reason)
	}
	if !approx(out.Result.VolumeRatio, 1) {
		t.Errorf("expected ratio 1 for zero older volume, got %v", out.Result.VolumeRatio)
	}
	for _, s := range out.Result.Signals {
		if s == model.SignalVolume {
			t.Error("volume condition should not trigger on a zero older volume")
		}
	}
}

func TestScoreDivergence_UndefinedIndicatorsAreNoSignal(t *testing.T) {
	nan := math.NaN()
	series := pivotSeries(row(52.0, nan, nan, nan, 1000000), row(49.0, 0.05, 0.02, 35, 1000000))
	out := ScoreDivergence(series, []int{10, 25}, StandardScoring())
	if !out.Found() {
		t.Fatalf("expected divergence from volume and drop, got %s", out.Reason)
	}
	if out.Result.MACDTally != 0 || out.Level() != model.LevelOrdinary {
		t.Errorf("NaN indicators must not count: tally %d level %s", out.Result.MACDTally, out.Level())
	}
}

func TestScoreDivergence_Deterministic(t *testing.T) {
	series := pivotSeries(row(52.0, -0.10, -0.08, 28, 1000000), row(49.5, 0.05, 0.02, 35, 1200000))
	a := ScoreDivergence(series, []int{3, 10, 25}, StandardScoring())
	b := ScoreDivergence(series, []int{3, 10, 25}, StandardScoring())
	if !reflect.DeepEqual(a, b) {
		t.Errorf("outputs differ:\n%+v\n%+v", a.Result, b.Result)
	}
	if a.Result.Older.Index != 10 {
		t.Errorf("expected the two most recent lows, got older index %d", a.Result.Older.Index)
	}
}

func TestScoreDivergence_LevelFollowsTally(t *testing.T) {
	for _, hist := range []float64{-1, 1} {
		for _, dif := range []float64{-1, 1} {
			for _, rsi := range []float64{10, 40} {
				series := pivotSeries(row(52, 0, 0, 30, 1000000), row(48, hist, dif, rsi, 1000000))
				out := ScoreDivergence(series, []int{10, 25}, StandardScoring())
				if !out.Found() {
					t.Fatalf("expected divergence for hist=%v dif=%v rsi=%v", hist, dif, rsi)
				}
				res := out.Result
				if len(res.Signals) < 2 {
					t.Errorf("result with %d signals", len(res.Signals))
				}
				want := map[int]model.Level{0: model.LevelOrdinary, 1: model.LevelMinor, 2: model.LevelStrong}[res.MACDTally]
				if res.Level != want {
					t.Errorf("tally %d gave level %s", res.MACDTally, res.Level)
				}
				if res.Confidence < 0 || res.Confidence > 0.95 {
					t.Errorf("confidence out of range: %v", res.Confidence)
				}
			}
		}
	}
}

func TestPresetByName(t *testing.T) {
	for _, name := range []string{"", "standard", "Recent"} {
		cfg, err := PresetByName(name)
		if err != nil {
			t.Fatalf("%q: %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%q: preset fails validation: %v", name, err)
		}
	}
	if _, err := PresetByName("aggressive"); err == nil {
		t.Error("expected error for unknown preset")
	}

	bad := StandardScoring()
	bad.Window = 0
	bad.MinorCap = 1.5
	if err := bad.Validate(); err == nil {
		t.Error("expected validation error")
	}
}
