package respond

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gisdesk/ticket-agent/internal/models"
)

func TestEveryCategoryHasTemplate(t *testing.T) {
	general := Template(models.CategoryGeneral)
	for _, c := range models.Categories {
		assert.NotEmpty(t, Template(c), c)
		if c != models.CategoryGeneral {
			assert.NotEqual(t, general, Template(c), c)
		}
		assert.NotEmpty(t, RequiredSkills(c), c)
	}
	assert.Equal(t, general, Template(models.Category("unknown")))
}

func TestComposeWithoutDecorations(t *testing.T) {
	assert.Equal(t, Template(models.CategoryMobile), Compose(models.CategoryMobile, models.Ticket{Subject: "x"}))
}

func TestComposeDecorations(t *testing.T) {
	tk := models.Ticket{
		Requester:      "Taylor",
		Number:         "31149",
		DueDate:        "2025-07-08",
		AdditionalInfo: "Layer: parcels",
	}
	got := Compose(models.CategoryGeocoding, tk)

	head, body, ok := strings.Cut(got, "\n\n")
	assert.True(t, ok)
	assert.Equal(t, "Hi Taylor, Regarding ticket #31149 Given the due date of 2025-07-08, I'll prioritize this request. "+
		"Based on the additional information provided: Layer: parcels", head)
	assert.Equal(t, Template(models.CategoryGeocoding), body)
}

func TestExcerptTruncatesRunes(t *testing.T) {
	long := strings.Repeat("é", 250)
	got := Excerpt(long, 200)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", 200)+"...", got)
	assert.Equal(t, "short", Excerpt("short", 200))
}

func TestActionPlanEscalation(t *testing.T) {
	high := ActionPlan(models.CategoryArcGISPro, models.PriorityHigh)
	assert.Len(t, high, 9)
	assert.Equal(t, "Acknowledge ticket receipt", high[0])
	assert.Equal(t, EscalationSteps(), high[1:3])
	assert.Equal(t, "Review issue details", high[3])

	for _, p := range []models.Priority{models.PriorityMedium, models.PriorityLow} {
		plan := ActionPlan(models.CategoryArcGISPro, p)
		assert.Len(t, plan, 7)
		for _, step := range EscalationSteps() {
			assert.NotContains(t, plan, step)
		}
	}

	high[0] = "mutated"
	assert.Equal(t, "Acknowledge ticket receipt", ActionPlan(models.CategoryGeneral, models.PriorityHigh)[0])
}

func TestResolutionTime(t *testing.T) {
	assert.Equal(t, "2-4 hours", ResolutionTime(models.PriorityHigh))
	assert.Equal(t, "1-2 business days", ResolutionTime(models.PriorityMedium))
	assert.Equal(t, "3-5 business days", ResolutionTime(models.PriorityLow))
	assert.Equal(t, "1-2 business days", ResolutionTime(""))
}
