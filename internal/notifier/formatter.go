package notifier

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"DivergenceSentinel/internal/collector"
	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/scanner"
	"DivergenceSentinel/internal/strategy"
	"DivergenceSentinel/internal/symbol"
	"DivergenceSentinel/internal/watchlist"
)

const disclaimer = "风险提示：仅供技术研究，不构成投资建议，投资有风险，入市需谨慎。"

// FormatAnalysis formats a single-symbol analysis into a Telegram message.
func FormatAnalysis(rep *scanner.Report) string {
	a := rep.Analysis
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📈 <b>%s</b> (%s) | %s\n\n",
		html.EscapeString(rep.DisplayName()), rep.Code, a.Latest.Time.Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("最新收盘价: %.2f\n", a.Latest.Close))
	b.WriteString(fmt.Sprintf("当前趋势: %s\n", a.Trend.Label()))
	b.WriteString(fmt.Sprintf("RSI(14): %s\n", formatValue(a.Latest.RSI, "%.1f")))
	b.WriteString(fmt.Sprintf("%d日区间: %.2f ~ %.2f（位置 %.0f%%）\n\n",
		strategy.RangeRows, a.Range.Low, a.Range.High, a.Range.Position*100))

	b.WriteString(fmt.Sprintf("💡 <b>操作建议:</b> %s\n\n", html.EscapeString(strategy.JoinAdvice(a.Advice))))
	b.WriteString(formatOutcome(a.Outcome))

	b.WriteString("\n<i>" + disclaimer + "</i>\n")
	return b.String()
}

func formatOutcome(o model.DivergenceOutcome) string {
	res := o.Result
	if res == nil {
		return fmt.Sprintf("未检测到明显底背离形态\n  原因: %s\n", html.EscapeString(o.Explanation))
	}

	var b strings.Builder
	icon := "ℹ️"
	switch res.Level {
	case model.LevelStrong:
		icon = "🎯"
	case model.LevelMinor:
		icon = "📊"
	}
	b.WriteString(fmt.Sprintf("%s <b>检测到%s</b>（%d重确认，置信度 %.0f%%）\n",
		icon, res.Level.Label(), len(res.Signals), res.Confidence*100))
	b.WriteString(fmt.Sprintf("  低点: %s（间隔 %d 天，跌幅 %.1f%%）\n", res.Details, res.SpanDays, res.PriceDrop*100))

	labels := make([]string, len(res.Signals))
	for i, s := range res.Signals {
		labels[i] = s.Label()
	}
	b.WriteString("  信号: " + strings.Join(labels, "、") + "\n")
	return b.String()
}

// FormatScanSummary lists the symbols with a divergence and the failures of a scan.
func FormatScanSummary(report *scanner.ScanReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔍 <b>自选股底背离扫描</b> | %s\n", report.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("共 %d 只，发现 %d 只，失败 %d 只\n\n",
		len(report.Reports), len(report.Found()), len(report.Failed())))

	found := report.Found()
	if len(found) == 0 {
		b.WriteString("暂无底背离信号\n")
	}
	for _, rep := range found {
		res := rep.Analysis.Outcome.Result
		b.WriteString(fmt.Sprintf("• <b>%s</b> %s: %s %.0f%% | %s\n",
			html.EscapeString(rep.DisplayName()), rep.Code, res.Level.Label(), res.Confidence*100, res.Details))
		b.WriteString(fmt.Sprintf("  %s\n", html.EscapeString(strategy.JoinAdvice(rep.Analysis.Advice))))
	}

	if failed := report.Failed(); len(failed) > 0 {
		b.WriteString("\n⚠️ <b>无法分析:</b>\n")
		for _, rep := range failed {
			b.WriteString(fmt.Sprintf("• %s: %s\n", rep.Code, html.EscapeString(FailureReason(rep.Err))))
		}
	}

	b.WriteString("\n<i>" + disclaimer + "</i>\n")
	return b.String()
}

// FormatWatchlist formats the watchlist for display.
func FormatWatchlist(items []model.WatchItem) string {
	if len(items) == 0 {
		return "📁 暂无自选股，使用 /add 代码 添加"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📁 <b>当前自选</b> (%d)\n\n", len(items)))
	for i, it := range items {
		b.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, it.Code, html.EscapeString(it.Name)))
	}
	return b.String()
}

// FormatHistory formats recent analysis records, newest first.
func FormatHistory(records []recorder.AnalysisRecord) string {
	if len(records) == 0 {
		return "📜 暂无历史记录"
	}
	var b strings.Builder
	b.WriteString("📜 <b>最近分析记录</b>\n\n")
	for _, r := range records {
		name := r.Name
		if name == "" {
			name = r.Symbol
		}
		line := fmt.Sprintf("%s %s", r.AnalyzedAt.Format("01-02 15:04"), html.EscapeString(name))
		if r.Error != "" {
			line += " ❌ 分析失败"
		} else {
			line += fmt.Sprintf(" %s", r.Level.Label())
			if r.Level != model.LevelNone {
				line += fmt.Sprintf(" %.0f%%", r.Confidence*100)
			}
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// FormatAdded confirms a watchlist addition.
func FormatAdded(item model.WatchItem) string {
	return fmt.Sprintf("✅ %s %s 已加入自选", item.Code, html.EscapeString(item.Name))
}

// FailureReason turns an analysis error into a short user-facing reason that
// separates bad input from data problems and provider failures.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, symbol.ErrInvalidCode):
		return "代码必须是 6 位数字"
	case errors.Is(err, watchlist.ErrExists):
		return "已存在"
	case errors.Is(err, watchlist.ErrNotFound):
		return "不在自选中"
	case errors.Is(err, model.ErrInsufficientData):
		return "数据不足，无法分析"
	case model.IsDataQuality(err):
		return "数据异常: " + err.Error()
	case collector.IsFetchError(err):
		return "未获取到数据，请检查代码是否正确"
	default:
		return err.Error()
	}
}

func formatValue(v float64, format string) string {
	if !model.Defined(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}
