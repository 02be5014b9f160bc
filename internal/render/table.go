package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/scanner"
	"DivergenceSentinel/internal/strategy"
	"DivergenceSentinel/internal/symbol"
)

const dateLayout = "2006-01-02"

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func rightAligned(numbers ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(numbers))
	for i, n := range numbers {
		cfgs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignRight}
	}
	return cfgs
}

func num(v float64, format string) string {
	if !model.Defined(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// AnalysisTable renders one symbol's analysis as a key/value table.
func AnalysisTable(rep *scanner.Report) string {
	t := newTable(fmt.Sprintf("%s (%s)", rep.DisplayName(), rep.Code))
	if rep.Err != nil {
		t.AppendRow(table.Row{"错误", rep.Err.Error()})
		return t.Render()
	}

	a := rep.Analysis
	exchange, ok := symbol.MIC(rep.Code)
	if !ok {
		exchange = "-"
	}
	t.AppendRows([]table.Row{
		{"交易所", strings.ToUpper(exchange)},
		{"数据源", rep.Source},
		{"最新日期", a.Latest.Time.Format(dateLayout)},
		{"收盘价", num(a.Latest.Close, "%.2f")},
		{fmt.Sprintf("%d日区间", strategy.RangeRows), fmt.Sprintf("%.2f ~ %.2f (%.0f%%)", a.Range.Low, a.Range.High, a.Range.Position*100)},
		{"趋势", a.Trend.Label()},
		{"参数", a.Config.Name},
	})
	t.AppendSeparator()

	out := a.Outcome
	if res := out.Result; res != nil {
		signals := make([]string, len(res.Signals))
		for i, s := range res.Signals {
			signals[i] = s.Label()
		}
		t.AppendRows([]table.Row{
			{"背离等级", res.Level.Label()},
			{"置信度", fmt.Sprintf("%.0f%%", res.Confidence*100)},
			{"低点", res.Details},
			{"间隔", fmt.Sprintf("%d 天", res.SpanDays)},
			{"信号", strings.Join(signals, ", ")},
		})
	} else {
		t.AppendRow(table.Row{"背离等级", model.LevelNone.Label()})
		t.AppendRow(table.Row{"原因", out.Explanation})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"建议", strategy.JoinAdvice(a.Advice)})
	return t.Render()
}

// ScanTable renders one row per scanned symbol, divergences first.
func ScanTable(report *scanner.ScanReport) string {
	t := newTable(fmt.Sprintf("扫描 %s", report.StartedAt.Format("2006-01-02 15:04")))
	t.AppendHeader(table.Row{"代码", "名称", "收盘", "趋势", "等级", "置信度", "说明"})
	t.SetColumnConfigs(rightAligned(3, 6))

	for _, rep := range report.Reports {
		if rep.Err != nil {
			t.AppendRow(table.Row{rep.Code, rep.DisplayName(), "-", "-", "失败", "-", rep.Err.Error()})
			continue
		}
		a := rep.Analysis
		conf, note := "-", a.Outcome.Explanation
		if res := a.Outcome.Result; res != nil {
			conf = fmt.Sprintf("%.0f%%", res.Confidence*100)
			note = res.Details
		}
		t.AppendRow(table.Row{
			rep.Code, rep.DisplayName(), num(a.Latest.Close, "%.2f"),
			a.Trend.Label(), a.Outcome.Level().Label(), conf, note,
		})
	}
	counts := report.LevelCounts()
	t.AppendFooter(table.Row{"", "", "", "",
		fmt.Sprintf("发现 %d", len(report.Found())),
		fmt.Sprintf("强 %d", counts[model.LevelStrong]),
		fmt.Sprintf("失败 %d", len(report.Failed())),
	})
	return t.Render()
}

// WatchlistTable renders the watchlist entries.
func WatchlistTable(items []model.WatchItem) string {
	t := newTable("自选列表")
	t.AppendHeader(table.Row{"#", "代码", "名称", "加入时间"})
	t.SetColumnConfigs(rightAligned(1))
	for i, it := range items {
		t.AppendRow(table.Row{i + 1, it.Code, it.DisplayName(), it.AddedAt.Format(dateLayout)})
	}
	if len(items) == 0 {
		t.SetCaption("自选列表为空")
	}
	return t.Render()
}

// HistoryTable renders recorded analyses, newest first.
func HistoryTable(records []recorder.AnalysisRecord) string {
	t := newTable("分析历史")
	t.AppendHeader(table.Row{"时间", "代码", "名称", "等级", "置信度", "结果"})
	t.SetColumnConfigs(rightAligned(5))
	for _, r := range records {
		result := r.Details
		if r.Error != "" {
			result = r.Error
		} else if result == "" {
			result = string(r.Reason)
		}
		t.AppendRow(table.Row{
			r.AnalyzedAt.Format("01-02 15:04"), r.Symbol, r.Name,
			r.Level.Label(), fmt.Sprintf("%.0f%%", r.Confidence*100), result,
		})
	}
	return t.Render()
}

// IndicatorTable renders the last rows of an indicator series.
func IndicatorTable(series *model.IndicatorSeries, last int) string {
	t := newTable("")
	t.AppendHeader(table.Row{"日期", "收盘", "MA5", "MA20", "DIF", "DEA", "MACD", "RSI", "K", "D", "J"})
	t.SetColumnConfigs(rightAligned(2, 3, 4, 5, 6, 7, 8, 9, 10, 11))

	start := series.Len() - last
	if start < 0 {
		start = 0
	}
	for _, r := range series.Rows[start:] {
		t.AppendRow(table.Row{
			r.Time.Format(dateLayout),
			num(r.Close, "%.2f"), num(r.MA5, "%.2f"), num(r.MA20, "%.2f"),
			num(r.MACDDif, "%.3f"), num(r.MACDSignal, "%.3f"), num(r.MACD, "%.3f"),
			num(r.RSI, "%.1f"), num(r.KDJK, "%.1f"), num(r.KDJD, "%.1f"), num(r.KDJJ, "%.1f"),
		})
	}
	return t.Render()
}
