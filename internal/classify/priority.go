package classify

import (
	"strings"

	"github.com/gisdesk/ticket-agent/internal/models"
)

var priorityValues = map[string]models.Priority{
	"high":      models.PriorityHigh,
	"urgent":    models.PriorityHigh,
	"critical":  models.PriorityHigh,
	"emergency": models.PriorityHigh,
	"1":         models.PriorityHigh,

	"medium": models.PriorityMedium,
	"normal": models.PriorityMedium,
	"2":      models.PriorityMedium,

	"low":      models.PriorityLow,
	"minor":    models.PriorityLow,
	"planning": models.PriorityLow,
	"3":        models.PriorityLow,
}

var prioritySources = []string{models.FieldPriority, models.FieldStatus, "state"}

var (
	highKeywords = []string{"urgent", "critical", "down", "error", "failed", "corrupted", "emergency", "outage", "broken", "cannot access"}
	lowKeywords  = []string{"question", "how to", "training", "enhancement", "feature request"}
)

// PriorityResolution is a resolved priority and the field or path that set it.
type PriorityResolution struct {
	Priority models.Priority
	Source   string
}

// ResolvePriority never fails; a ticket without any signal is medium.
func ResolvePriority(t models.Ticket) PriorityResolution {
	for _, field := range prioritySources {
		if p, ok := priorityValues[strings.ToLower(strings.TrimSpace(t.Get(field)))]; ok {
			return PriorityResolution{Priority: p, Source: field}
		}
	}
	return PriorityResolution{Priority: PriorityFromText(FreeText(t)), Source: "keywords"}
}

// PriorityFromText applies the high list, then the low list, then medium.
func PriorityFromText(text string) models.Priority {
	text = strings.ToLower(text)
	if containsAny(text, highKeywords) {
		return models.PriorityHigh
	}
	if containsAny(text, lowKeywords) {
		return models.PriorityLow
	}
	return models.PriorityMedium
}

func containsAny(text string, list []string) bool {
	for _, kw := range list {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
