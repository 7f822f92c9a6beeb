package ai

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// DefaultModelConfidence is used when the reply omits a confidence.
const DefaultModelConfidence = 0.8

// Suggestion is a validated model reply. Optional lists and strings may be
// empty; callers fill them from the rule tables.
type Suggestion struct {
	Category                models.Category
	Priority                models.Priority
	Confidence              float64
	SuggestedResponse       string
	ActionPlan              []string
	EstimatedResolutionTime string
	RequiredSkills          []string
}

type rawSuggestion struct {
	Category                string   `json:"category"`
	Priority                string   `json:"priority"`
	Confidence              *float64 `json:"confidence"`
	SuggestedResponse       string   `json:"suggested_response"`
	ActionPlan              []string `json:"action_plan"`
	EstimatedResolutionTime string   `json:"estimated_resolution_time"`
	RequiredSkills          []string `json:"required_skills"`
}

// StripFences removes a leading ```json or ``` fence and its closing fence.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimPrefix(s, "JSON")
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// ParseSuggestion decodes a reply, fenced or not. Unknown categories or
// priorities make the reply unusable.
func ParseSuggestion(reply string) (Suggestion, error) {
	body := StripFences(reply)
	if body == "" {
		return Suggestion{}, fmt.Errorf("%w: empty body", ErrUnparseable)
	}
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	cat, ok := models.ParseCategory(raw.Category)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: unknown category %q", ErrUnparseable, raw.Category)
	}
	pri, ok := models.ParsePriority(raw.Priority)
	if !ok {
		return Suggestion{}, fmt.Errorf("%w: unknown priority %q", ErrUnparseable, raw.Priority)
	}
	conf := DefaultModelConfidence
	if raw.Confidence != nil {
		conf = clamp01(*raw.Confidence)
	}
	return Suggestion{
		Category:                cat,
		Priority:                pri,
		Confidence:              conf,
		SuggestedResponse:       strings.TrimSpace(raw.SuggestedResponse),
		ActionPlan:              compact(raw.ActionPlan),
		EstimatedResolutionTime: strings.TrimSpace(raw.EstimatedResolutionTime),
		RequiredSkills:          compact(raw.RequiredSkills),
	}, nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func compact(list []string) []string {
	var out []string
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
