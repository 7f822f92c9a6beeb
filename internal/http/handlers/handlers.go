package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gisdesk/ticket-agent/internal/db"
	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/normalize"
	"github.com/gisdesk/ticket-agent/internal/service"
)

type Handler struct {
	Analyzer  *service.Analyzer
	Recorder  db.Recorder
	Validator *validator.Validate
	Logger    zerolog.Logger
	Workers   int
	MaxUpload int64
	Now       func() time.Time
}

type AnalyzedTicket struct {
	TicketID string                `json:"ticket_id"`
	Analysis models.AnalysisResult `json:"analysis"`
}

type AnalyzeResponse struct {
	Status   string                `json:"status"`
	TicketID string                `json:"ticket_id"`
	Analysis models.AnalysisResult `json:"analysis"`
}

type BulkRequest struct {
	Tickets []any `json:"tickets" validate:"required,min=1"`
}

type BulkResponse struct {
	Status         string             `json:"status"`
	Results        []AnalyzedTicket   `json:"results"`
	TotalProcessed int                `json:"total_processed"`
	Summary        service.RunSummary `json:"summary"`
}

type ImportedTicket struct {
	TicketData models.Ticket          `json:"ticket_data"`
	Analysis   *models.AnalysisResult `json:"analysis,omitempty"`
}

type ImportResponse struct {
	Status        string            `json:"status"`
	TotalImported int               `json:"total_imported"`
	Skipped       int               `json:"skipped"`
	Dialect       normalize.Dialect `json:"dialect"`
	Results       []ImportedTicket  `json:"results"`
}

type ProcessingOptions struct {
	GenerateResponses *bool `json:"generate_responses"`
	AssignPriority    *bool `json:"assign_priority"`
}

type ProcessRequest struct {
	Tickets []any             `json:"tickets" validate:"required,min=1"`
	Options ProcessingOptions `json:"processing_options"`
}

type GenerateRequest struct {
	Category string `json:"category"`
	Content  string `json:"content" validate:"required"`
}

type FeedbackRequest struct {
	TicketID     string `json:"ticket_id" validate:"required"`
	AISuggestion string `json:"ai_suggestion"`
	UserRating   int    `json:"user_rating" validate:"required,min=1,max=5"`
	UserFeedback string `json:"user_feedback"`
}

type StatsResponse struct {
	Status        string               `json:"status"`
	Daily         models.DailyStats    `json:"daily"`
	Effectiveness models.Effectiveness `json:"effectiveness"`
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Recorder != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Recorder.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Productivity store unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Analyze one ticket
// @Description Normalizes a JSON ticket and returns its classification and drafted reply
// @Tags analysis
// @Accept json
// @Produce json
// @Param ticket body map[string]any true "ticket fields"
// @Success 200 {object} AnalyzeResponse
// @Failure 400 {object} map[string]any
// @Router /api/analyze_ticket [post]
func (h *Handler) AnalyzeTicket(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUpload()))
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Could not read request body", err.Error())
		return
	}
	raw, err := normalize.DecodeObject(body)
	if err != nil {
		writeNormalizeError(c, err)
		return
	}
	res := h.Analyzer.AnalyzeRaw(c.Request.Context(), raw)
	c.JSON(http.StatusOK, AnalyzeResponse{Status: "success", TicketID: res.TicketID, Analysis: res})
}

// @Summary Analyze several tickets
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body BulkRequest true "tickets"
// @Success 200 {object} BulkResponse
// @Failure 400 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/bulk_analyze [post]
func (h *Handler) BulkAnalyze(c *gin.Context) {
	var req BulkRequest
	if !h.bind(c, &req) {
		return
	}
	results, summary := h.Analyzer.AnalyzeRawBatch(c.Request.Context(), req.Tickets, h.Workers)
	c.JSON(http.StatusOK, BulkResponse{
		Status:         "success",
		Results:        pair(results),
		TotalProcessed: len(results),
		Summary:        summary,
	})
}

// @Summary Import tickets from XML
// @Description Accepts flat <tickets> or <incidents> exports; analyze=true also classifies each ticket
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param xml_file formData file true "ticket export (.xml)"
// @Param analyze query bool false "run analysis on imported tickets"
// @Success 200 {object} ImportResponse
// @Failure 400 {object} map[string]any
// @Router /api/import_xml [post]
func (h *Handler) ImportXML(c *gin.Context) {
	file, err := c.FormFile("xml_file")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "xml_file is required", nil)
		return
	}
	if !validateExt(file.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .xml", nil)
		return
	}
	if file.Size > h.maxUpload() {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file too large", gin.H{"max_bytes": h.maxUpload()})
		return
	}
	f, err := file.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "could not open upload", err.Error())
		return
	}
	defer f.Close()

	batch, err := normalize.ParseXML(f)
	if err != nil {
		writeNormalizeError(c, err)
		return
	}

	resp := ImportResponse{
		Status:        "success",
		TotalImported: len(batch.Tickets),
		Skipped:       batch.Skipped,
		Dialect:       batch.Dialect,
		Results:       make([]ImportedTicket, len(batch.Tickets)),
	}
	for i, t := range batch.Tickets {
		resp.Results[i].TicketData = t
	}
	if analyze, _ := strconv.ParseBool(c.Query("analyze")); analyze {
		results, _ := h.Analyzer.AnalyzeBatch(c.Request.Context(), batch.Tickets, h.Workers)
		for i := range results {
			resp.Results[i].Analysis = &results[i]
		}
	}
	h.log(c).Info().Str("file", file.Filename).Int("imported", resp.TotalImported).Int("skipped", resp.Skipped).Msg("xml import")
	c.JSON(http.StatusOK, resp)
}

// @Summary Analyze tickets with output options
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body ProcessRequest true "tickets and options"
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/process_tickets [post]
func (h *Handler) ProcessTickets(c *gin.Context) {
	var req ProcessRequest
	if !h.bind(c, &req) {
		return
	}
	results, summary := h.Analyzer.AnalyzeRawBatch(c.Request.Context(), req.Tickets, h.Workers)
	generate := optionOrTrue(req.Options.GenerateResponses)
	assign := optionOrTrue(req.Options.AssignPriority)
	for i := range results {
		if !generate {
			results[i].SuggestedResponse = ""
		}
		if !assign {
			results[i].Priority = ""
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"processed": len(results),
		"results":   pair(results),
		"summary":   summary,
	})
}

// @Summary Draft a reply for free text
// @Tags analysis
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "category hint and content"
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Router /api/generate_response [post]
func (h *Handler) GenerateResponse(c *gin.Context) {
	var req GenerateRequest
	if !h.bind(c, &req) {
		return
	}
	reply := h.Analyzer.GenerateResponse(c.Request.Context(), req.Category, req.Content)
	c.JSON(http.StatusOK, gin.H{"status": "success", "category": req.Category, "response": reply})
}

// @Summary Productivity statistics
// @Tags stats
// @Produce json
// @Param date query string false "day as YYYY-MM-DD, defaults to today (UTC)"
// @Success 200 {object} StatsResponse
// @Failure 500 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	day := h.now().UTC()
	if q := strings.TrimSpace(c.Query("date")); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "date must be YYYY-MM-DD", err.Error())
			return
		}
		day = parsed
	}
	if !h.recorderReady(c) {
		return
	}
	daily, err := h.Recorder.DailyStats(c.Request.Context(), day)
	if err != nil {
		h.log(c).Error().Err(err).Msg("daily stats failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}
	eff, err := h.Recorder.Effectiveness(c.Request.Context())
	if err != nil {
		h.log(c).Error().Err(err).Msg("effectiveness failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load stats", err.Error())
		return
	}
	c.JSON(http.StatusOK, StatsResponse{Status: "success", Daily: daily, Effectiveness: eff})
}

// @Summary Rate a suggestion
// @Tags stats
// @Accept json
// @Produce json
// @Param request body FeedbackRequest true "rating"
// @Success 200 {object} map[string]any
// @Failure 422 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /api/feedback [post]
func (h *Handler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if !h.bind(c, &req) {
		return
	}
	if !h.recorderReady(c) {
		return
	}
	err := h.Recorder.RecordFeedback(c.Request.Context(), models.Feedback{
		TicketID:     req.TicketID,
		AISuggestion: req.AISuggestion,
		UserRating:   req.UserRating,
		UserFeedback: req.UserFeedback,
		Timestamp:    h.now().UTC(),
	})
	if errors.Is(err, db.ErrInvalidRating) {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	if err != nil {
		h.log(c).Error().Err(err).Str("ticket_id", req.TicketID).Msg("feedback record failed")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to record feedback", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// recorderReady writes 503 when the server runs without a productivity store.
func (h *Handler) recorderReady(c *gin.Context) bool {
	if h.Recorder != nil {
		return true
	}
	writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Productivity store unavailable", "no recorder configured")
	return false
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return false
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", err.Error())
		return false
	}
	return true
}

// log prefers the request-scoped logger set by middleware.Logger.
func (h *Handler) log(c *gin.Context) *zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.Logger
}

func (h *Handler) maxUpload() int64 {
	if h.MaxUpload <= 0 {
		return 20 << 20
	}
	return h.MaxUpload
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func writeNormalizeError(c *gin.Context, err error) {
	var perr *normalize.ParseError
	switch {
	case errors.Is(err, normalize.ErrEmptyBody):
		writeError(c, http.StatusBadRequest, "EMPTY_BODY", "No ticket data provided", nil)
	case errors.Is(err, normalize.ErrNotObject):
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Ticket must be a JSON object", nil)
	case errors.As(err, &perr):
		writeError(c, http.StatusBadRequest, "MALFORMED_INPUT", "Ticket source could not be parsed", perr.Error())
	default:
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid ticket", err.Error())
	}
}

func pair(results []models.AnalysisResult) []AnalyzedTicket {
	out := make([]AnalyzedTicket, len(results))
	for i, r := range results {
		out[i] = AnalyzedTicket{TicketID: r.TicketID, Analysis: r}
	}
	return out
}

func optionOrTrue(v *bool) bool {
	return v == nil || *v
}

func validateExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xml"
}
