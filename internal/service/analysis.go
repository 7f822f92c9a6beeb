// Package service sequences ticket analysis: prompt export, the optional
// model call, the rule path and the manual-review terminal result.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/gisdesk/ticket-agent/internal/ai"
	"github.com/gisdesk/ticket-agent/internal/classify"
	"github.com/gisdesk/ticket-agent/internal/db"
	"github.com/gisdesk/ticket-agent/internal/export"
	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/normalize"
	"github.com/gisdesk/ticket-agent/internal/ranking"
	"github.com/gisdesk/ticket-agent/internal/respond"
	"github.com/gisdesk/ticket-agent/internal/telemetry"
)

const (
	ManualReviewConfidence = 0.1
	fallbackReply          = "Thank you for contacting support. We will review your request and respond soon."
)

// Settings is read once at startup and never mutated.
type Settings struct {
	AIEnabled       bool
	FallbackToRules bool
	ExportPrompts   bool
	ModelID         string
}

// Analyzer holds no per-ticket state; one instance serves concurrent calls.
// Model, Export and Recorder may be nil.
type Analyzer struct {
	Settings Settings
	Model    ai.Completer
	Export   export.Sink
	Recorder db.Recorder
	Logger   zerolog.Logger
	Now      func() time.Time
}

func (a *Analyzer) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// AnalyzeRaw normalizes a field mapping and analyses it. Records that fail
// normalization get the manual-review result.
func (a *Analyzer) AnalyzeRaw(ctx context.Context, raw map[string]any) models.AnalysisResult {
	t, err := normalize.FromMap(raw)
	if err != nil {
		a.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("ticket rejected during normalization")
		telemetry.RejectedRecords.WithLabelValues(rejectReason(err)).Inc()
		res := ManualReview(t.ID, a.now())
		a.record(ctx, res)
		return res
	}
	return a.Analyze(ctx, t)
}

// Analyze runs the pipeline for one canonical ticket. It never fails.
func (a *Analyzer) Analyze(ctx context.Context, t models.Ticket) models.AnalysisResult {
	at := a.now()
	exportFile := a.exportPrompt(ctx, t, at)

	var (
		res models.AnalysisResult
		ok  bool
	)
	if a.Settings.AIEnabled && a.Model != nil {
		res, ok = a.analyzeWithModel(ctx, t, at)
	}
	if !ok {
		if a.Settings.FallbackToRules {
			res = RuleBased(t, at)
		} else {
			res = ManualReview(t.ID, at)
		}
	}
	res.PromptExportFile = exportFile
	a.record(ctx, res)
	return res
}

// GenerateResponse runs a throwaway ticket through Analyze and keeps only
// the reply text.
func (a *Analyzer) GenerateResponse(ctx context.Context, category, content string) string {
	t := models.Ticket{
		ID:          tempID(a.now()),
		Subject:     "Response Generation Request",
		Description: content,
		Category:    category,
	}
	res := a.Analyze(ctx, t)
	if res.SuggestedResponse == "" {
		return fallbackReply
	}
	return res.SuggestedResponse
}

var tempSeq atomic.Uint64

// tempID names a throwaway ticket; the sequence keeps ids from one instant
// apart.
func tempID(at time.Time) string {
	return fmt.Sprintf("temp_%s_%06d_%04d", at.Format("20060102_150405"), at.Nanosecond()/int(time.Microsecond), tempSeq.Add(1)%10000)
}

// RuleBased resolves category and priority from the static tables.
func RuleBased(t models.Ticket, at time.Time) models.AnalysisResult {
	cat := classify.ResolveCategory(t)
	pri := classify.ResolvePriority(t)
	signals := classify.ExtractSignals(t)
	return models.AnalysisResult{
		TicketID:                t.ID,
		Category:                cat.Category,
		Priority:                pri.Priority,
		Confidence:              cat.Confidence,
		SuggestedResponse:       respond.Compose(cat.Category, t),
		ActionPlan:              respond.ActionPlan(cat.Category, pri.Priority),
		EstimatedResolutionTime: respond.ResolutionTime(pri.Priority),
		RequiredSkills:          respond.RequiredSkills(cat.Category),
		AnalysisMethod:          models.MethodRules,
		AnalyzedAt:              at,
		FieldsUsed:              t.FieldNames(),
		CategorySource:          cat.Source,
		Signals:                 &signals,
	}
}

// ManualReview is the terminal result when no analysis path is available.
func ManualReview(ticketID string, at time.Time) models.AnalysisResult {
	return models.AnalysisResult{
		TicketID:                ticketID,
		Category:                models.CategoryGeneral,
		Priority:                models.PriorityMedium,
		Confidence:              ManualReviewConfidence,
		SuggestedResponse:       respond.ManualReviewResponse,
		ActionPlan:              []string{},
		EstimatedResolutionTime: respond.ResolutionTime(models.PriorityMedium),
		RequiredSkills:          respond.RequiredSkills(models.CategoryGeneral),
		AnalysisMethod:          models.MethodManual,
		AnalyzedAt:              at,
		FieldsUsed:              []string{},
	}
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, t models.Ticket, at time.Time) (models.AnalysisResult, bool) {
	weighted, _ := ranking.Context(t)
	user := ai.UserPrompt(t, ai.ModeFull, weighted)

	start := time.Now()
	reply, err := a.Model.Complete(ctx, ai.SystemPrompt, user)
	telemetry.ModelLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.ModelCalls.WithLabelValues(telemetry.OutcomeFailure).Inc()
		a.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("model call failed")
		return models.AnalysisResult{}, false
	}
	s, err := ai.ParseSuggestion(reply)
	if err != nil {
		telemetry.ModelCalls.WithLabelValues(telemetry.OutcomeUnparseable).Inc()
		a.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("model reply unusable")
		return models.AnalysisResult{}, false
	}
	telemetry.ModelCalls.WithLabelValues(telemetry.OutcomeSuccess).Inc()

	res := models.AnalysisResult{
		TicketID:                t.ID,
		Category:                s.Category,
		Priority:                s.Priority,
		Confidence:              s.Confidence,
		SuggestedResponse:       s.SuggestedResponse,
		ActionPlan:              s.ActionPlan,
		EstimatedResolutionTime: s.EstimatedResolutionTime,
		RequiredSkills:          s.RequiredSkills,
		AnalysisMethod:          models.MethodAI,
		AnalyzedAt:              at,
		FieldsUsed:              t.FieldNames(),
		CategorySource:          "model",
		Model:                   a.Settings.ModelID,
	}
	if res.SuggestedResponse == "" {
		res.SuggestedResponse = respond.Compose(s.Category, t)
	}
	if len(res.ActionPlan) == 0 {
		res.ActionPlan = respond.ActionPlan(s.Category, s.Priority)
	}
	if res.EstimatedResolutionTime == "" {
		res.EstimatedResolutionTime = respond.ResolutionTime(s.Priority)
	}
	if len(res.RequiredSkills) == 0 {
		res.RequiredSkills = respond.RequiredSkills(s.Category)
	}
	return res, true
}

func (a *Analyzer) exportPrompt(ctx context.Context, t models.Ticket, at time.Time) string {
	if !a.Settings.ExportPrompts || a.Export == nil {
		return ""
	}
	doc := export.Build(t, ai.ModeFull, at)
	path, err := a.Export.Write(ctx, export.FileName(t.ID, at), doc)
	if err != nil {
		telemetry.SinkFailures.WithLabelValues(telemetry.SinkExport).Inc()
		a.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("prompt export failed")
		return ""
	}
	return path
}

func (a *Analyzer) record(ctx context.Context, res models.AnalysisResult) {
	telemetry.TicketsAnalyzed.WithLabelValues(string(res.AnalysisMethod), string(res.Category), string(res.Priority)).Inc()
	if a.Recorder == nil {
		return
	}
	err := a.Recorder.RecordAction(ctx, models.TicketAction{
		TicketID:       res.TicketID,
		ActionType:     db.ActionAnalyzed,
		Timestamp:      res.AnalyzedAt,
		AutomationUsed: res.AnalysisMethod != models.MethodManual,
		Category:       string(res.Category),
		Priority:       string(res.Priority),
		Outcome:        string(res.AnalysisMethod),
	})
	if err != nil {
		telemetry.SinkFailures.WithLabelValues(telemetry.SinkMetrics).Inc()
		a.Logger.Warn().Err(err).Str("ticket_id", res.TicketID).Msg("metrics record failed")
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, normalize.ErrSkipped):
		return "no_text"
	case errors.Is(err, normalize.ErrNotObject):
		return "not_object"
	default:
		var perr *normalize.ParseError
		if errors.As(err, &perr) {
			return "malformed"
		}
		return "other"
	}
}
