package scanner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"DivergenceSentinel/internal/collector"
	"DivergenceSentinel/internal/model"
	"DivergenceSentinel/internal/recorder"
	"DivergenceSentinel/internal/strategy"
	"DivergenceSentinel/internal/symbol"
	"DivergenceSentinel/internal/watchlist"
)

// DefaultConcurrency bounds the number of symbols fetched at once.
const DefaultConcurrency = 4

// Report is the analysis of one symbol. Exactly one of Analysis and Err is set.
type Report struct {
	Code     string
	Name     string
	Source   string
	Analysis *strategy.Analysis
	Err      error
}

// DisplayName returns the name, or the code when no name is known.
func (r *Report) DisplayName() string {
	if r.Name == "" {
		return r.Code
	}
	return r.Name
}

// ScanReport holds the per-symbol reports of one watchlist scan, in watchlist order.
type ScanReport struct {
	RunID      string
	Trigger    string
	StartedAt  time.Time
	FinishedAt time.Time
	Reports    []*Report
}

// Found returns the reports with a divergence.
func (r *ScanReport) Found() []*Report {
	var out []*Report
	for _, rep := range r.Reports {
		if rep.Analysis != nil && rep.Analysis.Outcome.Found() {
			out = append(out, rep)
		}
	}
	return out
}

// Failed returns the reports that could not be analyzed.
func (r *ScanReport) Failed() []*Report {
	var out []*Report
	for _, rep := range r.Reports {
		if rep.Err != nil {
			out = append(out, rep)
		}
	}
	return out
}

// LevelCounts tallies the reports by divergence level; failed symbols are not counted.
func (r *ScanReport) LevelCounts() map[model.Level]int {
	counts := make(map[model.Level]int)
	for _, rep := range r.Reports {
		if rep.Analysis != nil {
			counts[rep.Analysis.Outcome.Level()]++
		}
	}
	return counts
}

// Scanner runs the divergence analysis for single codes and for the whole watchlist.
type Scanner struct {
	Collector   *collector.Collector
	Watchlist   *watchlist.Service
	Names       symbol.NameLookup
	Recorder    recorder.Recorder
	Config      strategy.ScoringConfig
	Concurrency int
}

// New creates a Scanner. names may be nil.
func New(c *collector.Collector, wl *watchlist.Service, names symbol.NameLookup, rec recorder.Recorder, cfg strategy.ScoringConfig, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scanner{
		Collector:   c,
		Watchlist:   wl,
		Names:       names,
		Recorder:    rec,
		Config:      cfg,
		Concurrency: concurrency,
	}
}

// AnalyzeOne fetches and analyzes a single code. The error is a
// symbol.ErrInvalidCode, a *collector.FetchError or a *model.DataQualityError.
func (s *Scanner) AnalyzeOne(ctx context.Context, code string) (*Report, error) {
	canonical := symbol.Canonical(code)
	if !symbol.IsValidCode(canonical) {
		return nil, fmt.Errorf("%w: %q", symbol.ErrInvalidCode, code)
	}
	name := ""
	if s.Names != nil {
		name = s.Names.LookupName(ctx, canonical).Or("")
	}
	rep := s.analyze(ctx, uuid.NewString(), canonical, name)
	if rep.Err != nil {
		return nil, rep.Err
	}
	return rep, nil
}

// Scan analyzes every watchlist symbol with bounded concurrency. A symbol
// that fails is reported, not fatal. Cancelling ctx discards the whole scan.
func (s *Scanner) Scan(ctx context.Context, trigger string) (*ScanReport, error) {
	items, err := s.Watchlist.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: time.Now(),
		Reports:   make([]*Report, len(items)),
	}
	log.Printf("[INFO] Scan %s (%s) started: %d symbols", report.RunID, trigger, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)
	for i, it := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep := s.analyze(gctx, report.RunID, it.Code, it.Name)
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[WARN] Scan %s cancelled: %v", report.RunID, err)
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}
	report.FinishedAt = time.Now()

	run := &recorder.ScanRun{
		ID:         report.RunID,
		Trigger:    trigger,
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Symbols:    len(items),
		Found:      len(report.Found()),
		Failed:     len(report.Failed()),
	}
	if err := s.Recorder.RecordScan(ctx, run); err != nil {
		log.Printf("[WARN] Failed to record scan %s: %v", run.ID, err)
	}
	log.Printf("[INFO] Scan %s finished in %s: %d found, %d failed",
		run.ID, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond), run.Found, run.Failed)
	return report, nil
}

func (s *Scanner) analyze(ctx context.Context, runID, code, name string) *Report {
	rep := &Report{Code: code, Name: name, Source: s.Collector.Fetcher.Name()}

	series, err := s.Collector.Collect(ctx, code)
	if err == nil {
		rep.Source = series.Source
		rep.Analysis, err = strategy.AnalyzeBars(series.Bars, s.Config)
	}

	var rec *recorder.AnalysisRecord
	if err != nil {
		rep.Err = err
		rec = recorder.NewFailedRecord(runID, code, name, err)
		if ctx.Err() == nil {
			log.Printf("[WARN] Analysis of %s failed: %v", code, err)
		}
	} else {
		rec = recorder.NewAnalysisRecord(runID, code, name, rep.Analysis)
	}
	if ctx.Err() == nil {
		if err := s.Recorder.RecordAnalysis(ctx, rec); err != nil {
			log.Printf("[WARN] Failed to record analysis of %s: %v", code, err)
		}
	}
	return rep
}
