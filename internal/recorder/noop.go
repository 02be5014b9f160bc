package recorder

import "context"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(_ context.Context, _ *AnalysisRecord) error { return nil }
func (n *NoopRecorder) RecordScan(_ context.Context, _ *ScanRun) error            { return nil }
func (n *NoopRecorder) Close() error                                              { return nil }

func (n *NoopRecorder) RecentAnalyses(_ context.Context, _ int) ([]AnalysisRecord, error) {
	return []AnalysisRecord{}, nil
}
