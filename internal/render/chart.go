package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/strategy"
)

// lineData maps values to chart points; undefined values become gaps.
func lineData(series *model.IndicatorSeries, pick func(model.IndicatorRow) float64) []opts.LineData {
	out := make([]opts.LineData, series.Len())
	for i, r := range series.Rows {
		if v := pick(r); model.Defined(v) {
			out[i] = opts.LineData{Value: v}
		}
	}
	return out
}

func pivotMark(label string, p model.PivotValues) opts.MarkPointNameCoordItem {
	date := p.Date.Format(dateLayout)
	return opts.MarkPointNameCoordItem{
		Name:       label,
		Coordinate: []interface{}{date, p.Close},
		Value:      fmt.Sprintf("%.2f", p.Close),
	}
}

// PriceChart builds a close/MA line chart for an analysis. When a divergence
// was found, its two lows are marked on the close line.
func PriceChart(title string, a *strategy.Analysis) *charts.Line {
	series := a.Series
	dates := make([]string, series.Len())
	for i, r := range series.Rows {
		dates[i] = r.Time.Format(dateLayout)
	}

	subtitle := a.Outcome.Level().Label()
	if res := a.Outcome.Result; res != nil {
		subtitle = fmt.Sprintf("%s %.0f%% | %s", res.Level.Label(), res.Confidence*100, res.Details)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithYAxisOpts(opts.YAxis{Name: "价格", Scale: opts.Bool(true)}),
	)

	closeOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	}
	if res := a.Outcome.Result; res != nil {
		closeOpts = append(closeOpts,
			charts.WithMarkPointNameCoordItemOpts(pivotMark("前低", res.Older), pivotMark("新低", res.Newer)),
			charts.WithMarkPointStyleOpts(opts.MarkPointStyle{Symbol: []string{"pin"}, SymbolSize: 48}),
		)
	}

	smooth := charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)})
	line.SetXAxis(dates).
		AddSeries("收盘", lineData(series, func(r model.IndicatorRow) float64 { return r.Close }), closeOpts...).
		AddSeries("MA5", lineData(series, func(r model.IndicatorRow) float64 { return r.MA5 }), smooth).
		AddSeries("MA20", lineData(series, func(r model.IndicatorRow) float64 { return r.MA20 }), smooth)
	return line
}

// WriteChart renders the price chart as a standalone HTML page.
func WriteChart(w io.Writer, title string, a *strategy.Analysis) error {
	if a == nil || a.Series.Len() == 0 {
		return fmt.Errorf("render chart: %w", model.ErrInsufficientData)
	}
	return PriceChart(title, a).Render(w)
}
