package strategy

import (
	"strings"

	"DivergenceSentinel/internal/model"
)

const (
	adviceStrong   = "🔔 强烈关注：MACD双信号确认"
	adviceMinor    = "⚠️ 关注：MACD单信号背离"
	adviceOrdinary = "ℹ️ 技术信号：保持观察"
	adviceNone     = "暂无明确交易信号"

	adviceCrossUp   = "MACD已金叉，趋势转强"
	adviceCrossWait = "等待MACD金叉确认"
	adviceStopLoss  = "设止损在近期低点下方3-5%"
)

// ComposeAdvice returns the headline for the divergence level followed by a
// MACD crossover note and the stop-loss line. Without a divergence only the
// headline is returned.
func ComposeAdvice(outcome model.DivergenceOutcome, latest model.IndicatorRow) []string {
	var headline string
	switch outcome.Level() {
	case model.LevelStrong:
		headline = adviceStrong
	case model.LevelMinor:
		headline = adviceMinor
	case model.LevelOrdinary:
		headline = adviceOrdinary
	default:
		return []string{adviceNone}
	}

	cross := adviceCrossWait
	if latest.MACDDif > latest.MACDSignal {
		cross = adviceCrossUp
	}
	return []string{headline, cross, adviceStopLoss}
}

// JoinAdvice renders advice on a single line.
func JoinAdvice(advice []string) string {
	return strings.Join(advice, " | ")
}
