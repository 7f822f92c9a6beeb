package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gisdesk/ticket-agent/internal/models"
)

const DefaultWorkers = 4

// RunSummary counts the outcome of one batch.
type RunSummary struct {
	Total      int            `json:"total"`
	AI         int            `json:"ai_model"`
	Rules      int            `json:"rule_based"`
	Manual     int            `json:"manual_review"`
	Categories map[string]int `json:"categories"`
	Duration   time.Duration  `json:"duration_ns"`
}

func summarize(results []models.AnalysisResult, started time.Time) RunSummary {
	s := RunSummary{Total: len(results), Categories: map[string]int{}}
	for _, r := range results {
		switch r.AnalysisMethod {
		case models.MethodAI:
			s.AI++
		case models.MethodRules:
			s.Rules++
		case models.MethodManual:
			s.Manual++
		}
		s.Categories[string(r.Category)]++
	}
	s.Duration = time.Since(started)
	return s
}

// AnalyzeBatch analyses tickets on at most workers goroutines. Results keep
// input order.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, tickets []models.Ticket, workers int) ([]models.AnalysisResult, RunSummary) {
	started := time.Now()
	results := make([]models.AnalysisResult, len(tickets))
	run(len(tickets), workers, func(i int) {
		results[i] = a.Analyze(ctx, tickets[i])
	})
	summary := summarize(results, started)
	a.logSummary(summary)
	return results, summary
}

// AnalyzeRawBatch is AnalyzeBatch for undecoded JSON items. Items that are
// not objects get the manual-review result.
func (a *Analyzer) AnalyzeRawBatch(ctx context.Context, items []any, workers int) ([]models.AnalysisResult, RunSummary) {
	started := time.Now()
	results := make([]models.AnalysisResult, len(items))
	run(len(items), workers, func(i int) {
		raw, ok := items[i].(map[string]any)
		if !ok {
			res := ManualReview("", a.now())
			a.record(ctx, res)
			results[i] = res
			return
		}
		results[i] = a.AnalyzeRaw(ctx, raw)
	})
	summary := summarize(results, started)
	a.logSummary(summary)
	return results, summary
}

func run(n, workers int, fn func(i int)) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Analyzer) logSummary(s RunSummary) {
	a.Logger.Info().
		Int("total", s.Total).
		Int("ai_model", s.AI).
		Int("rule_based", s.Rules).
		Int("manual_review", s.Manual).
		Dur("duration", s.Duration).
		Msg("batch analysed")
}
