package recorder

import (
	"context"
	"time"

	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/strategy"
)

// AnalysisRecord is one analyzed symbol, successful or not.
type AnalysisRecord struct {
	RunID      string                   `json:"run_id"`
	Symbol     string                   `json:"symbol"`
	Name       string                   `json:"name"`
	AnalyzedAt time.Time                `json:"analyzed_at"`
	LastDate   time.Time                `json:"last_date"`
	LastClose  float64                  `json:"last_close"`
	Trend      model.Trend              `json:"trend"`
	Level      model.Level              `json:"level"`
	Confidence float64                  `json:"confidence"`
	Signals    []model.SignalName       `json:"signals"`
	Reason     model.NoDivergenceReason `json:"reason,omitempty"`
	Details    string                   `json:"details,omitempty"`
	Advice     string                   `json:"advice"`
	Error      string                   `json:"error,omitempty"`
}

// ScanRun summarizes one watchlist scan.
type ScanRun struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"` // "schedule", "command", "api" or "cli"
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Symbols    int       `json:"symbols"`
	Found      int       `json:"found"`
	Failed     int       `json:"failed"`
}

// Recorder persists analysis history.
type Recorder interface {
	RecordAnalysis(ctx context.Context, rec *AnalysisRecord) error
	RecordScan(ctx context.Context, run *ScanRun) error
	RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error)
	Close() error
}

// NewAnalysisRecord flattens an analysis for storage.
func NewAnalysisRecord(runID, symbol, name string, a *strategy.Analysis) *AnalysisRecord {
	rec := &AnalysisRecord{
		RunID:      runID,
		Symbol:     symbol,
		Name:       name,
		AnalyzedAt: time.Now(),
		LastDate:   a.Latest.Time,
		LastClose:  a.Latest.Close,
		Trend:      a.Trend,
		Level:      a.Outcome.Level(),
		Reason:     a.Outcome.Reason,
		Advice:     strategy.JoinAdvice(a.Advice),
	}
	if res := a.Outcome.Result; res != nil {
		rec.Confidence = res.Confidence
		rec.Signals = res.Signals
		rec.Details = res.Details
	} else {
		rec.Details = a.Outcome.Explanation
	}
	return rec
}

// NewFailedRecord records a symbol that could not be analyzed.
func NewFailedRecord(runID, symbol, name string, err error) *AnalysisRecord {
	return &AnalysisRecord{
		RunID:      runID,
		Symbol:     symbol,
		Name:       name,
		AnalyzedAt: time.Now(),
		Level:      model.LevelNone,
		Error:      err.Error(),
	}
}
