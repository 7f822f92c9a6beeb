package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisdesk/ticket-agent/internal/models"
)

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	a, _, store := newAnalyzer(rulesOnly(), nil)
	var tickets []models.Ticket
	for i := 0; i < 25; i++ {
		tickets = append(tickets, models.Ticket{ID: fmt.Sprintf("B-%02d", i), Subject: "Survey123 sync"})
	}

	results, summary := a.AnalyzeBatch(context.Background(), tickets, 3)
	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, tickets[i].ID, r.TicketID)
	}
	assert.Equal(t, 25, summary.Total)
	assert.Equal(t, 25, summary.Rules)
	assert.Equal(t, 25, summary.Categories["mobile"])
	assert.Len(t, store.Actions(), 25)
}

func TestAnalyzeRawBatchContinuesPastBadItems(t *testing.T) {
	a, _, _ := newAnalyzer(rulesOnly(), nil)
	items := []any{
		map[string]any{"id": "R-1", "subject": "Portal outage"},
		"not an object",
		map[string]any{"id": "R-3"},
		map[string]any{"id": "R-4", "description": "Geocode these addresses"},
	}

	results, summary := a.AnalyzeRawBatch(context.Background(), items, 0)
	require.Len(t, results, 4)
	assert.Equal(t, models.MethodRules, results[0].AnalysisMethod)
	assert.Equal(t, models.PriorityHigh, results[0].Priority)
	assert.Equal(t, models.MethodManual, results[1].AnalysisMethod)
	assert.Equal(t, models.MethodManual, results[2].AnalysisMethod)
	assert.Equal(t, "R-3", results[2].TicketID)
	assert.Equal(t, models.CategoryGeocoding, results[3].Category)
	assert.Equal(t, 2, summary.Manual)
	assert.Equal(t, 2, summary.Rules)
}
