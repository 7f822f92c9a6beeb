package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisdesk/ticket-agent/internal/models"
)

func TestExplicitCategoryWinsOverDescription(t *testing.T) {
	for _, cat := range []string{"arcgis", "ArcGIS", "ArcGIS Pro crashes", "arcgis_pro"} {
		tk := models.Ticket{
			Category:    cat,
			Description: "Print layout export to pdf fails on the plotter",
		}
		r := ResolveCategory(tk)
		assert.Equal(t, models.CategoryArcGISPro, r.Category, cat)
		assert.GreaterOrEqual(t, r.Confidence, 0.9, cat)
		assert.Equal(t, models.FieldCategory, r.Source)
	}
}

func TestMatchAliasPrefersLongestTerm(t *testing.T) {
	cat, term, ok := MatchAlias("ArcGIS Online sharing")
	require.True(t, ok)
	assert.Equal(t, models.CategoryWebMapping, cat)
	assert.Equal(t, "arcgis online", term)

	_, _, ok = MatchAlias("SR_GIS")
	assert.False(t, ok)

	_, _, ok = MatchAlias("   ")
	assert.False(t, ok)
}

func TestHintFallsThroughToSubcategory(t *testing.T) {
	tk := models.Ticket{
		Category:    "SR_GIS",
		Subcategory: "Add / Change GIS Data",
		Subject:     "Geocode location addresses",
	}
	r, ok := HintFromMetadata(tk)
	require.True(t, ok)
	assert.Equal(t, models.CategoryDataIssues, r.Category)
	assert.Equal(t, models.FieldSubcategory, r.Source)
	assert.Equal(t, ExplicitConfidence, r.Confidence)
}

func TestHintFromSubjectUsesLowerConfidence(t *testing.T) {
	r, ok := HintFromMetadata(models.Ticket{Subject: "Survey123 form will not submit"})
	require.True(t, ok)
	assert.Equal(t, models.CategoryMobile, r.Category)
	assert.Equal(t, InferredConfidence, r.Confidence)
}

func TestKeywordFallback(t *testing.T) {
	r := ResolveCategory(models.Ticket{Description: "The layout will not print"})
	assert.Equal(t, models.CategoryPrinting, r.Category)
	assert.Equal(t, "keywords", r.Source)
	assert.InDelta(t, 0.7, r.Confidence, 1e-9)
	assert.Equal(t, []string{"print", "layout"}, r.Matched)

	again := ResolveCategory(models.Ticket{Description: "The layout will not print"})
	assert.Equal(t, r, again)
}

func TestKeywordTieGoesToEarlierCategory(t *testing.T) {
	r, ok := FromKeywords("portal data")
	require.True(t, ok)
	assert.Equal(t, models.CategoryWebMapping, r.Category)
	assert.InDelta(t, 0.6, r.Confidence, 1e-9)
}

func TestKeywordConfidenceIsCapped(t *testing.T) {
	r, ok := FromKeywords("data layer shapefile geodatabase attribute geometry")
	require.True(t, ok)
	assert.Equal(t, models.CategoryDataIssues, r.Category)
	assert.InDelta(t, 0.95, r.Confidence, 1e-9)
}

func TestDefaultCategory(t *testing.T) {
	r := ResolveCategory(models.Ticket{Description: "Hello there"})
	assert.Equal(t, models.CategoryGeneral, r.Category)
	assert.Equal(t, DefaultConfidence, r.Confidence)
	assert.Equal(t, "default", r.Source)
}

func TestResolvePriorityStructured(t *testing.T) {
	cases := []struct {
		ticket models.Ticket
		want   models.Priority
		source string
	}{
		{models.Ticket{Priority: "Critical", Description: "how to"}, models.PriorityHigh, models.FieldPriority},
		{models.Ticket{Priority: "2", Description: "server down"}, models.PriorityMedium, models.FieldPriority},
		{models.Ticket{Priority: "P4", Status: "planning"}, models.PriorityLow, models.FieldStatus},
		{models.Ticket{Extra: map[string]string{"state": "Emergency"}}, models.PriorityHigh, "state"},
	}
	for _, tc := range cases {
		got := ResolvePriority(tc.ticket)
		assert.Equal(t, tc.want, got.Priority)
		assert.Equal(t, tc.source, got.Source)
	}
}

func TestResolvePriorityKeywords(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, ResolvePriority(models.Ticket{Description: "URGENT: parcel service"}).Priority)
	assert.Equal(t, models.PriorityLow, ResolvePriority(models.Ticket{Subject: "How to add a basemap"}).Priority)
	assert.Equal(t, models.PriorityMedium, ResolvePriority(models.Ticket{Description: "Map looks odd"}).Priority)
	assert.Equal(t, models.PriorityMedium, ResolvePriority(models.Ticket{}).Priority)
}

func TestExtractSignals(t *testing.T) {
	tk := models.Ticket{
		Subject:     "ArcGIS crashed loading shapefile",
		Description: "Call 555-123-4567 or mail gis.ops@example.org. Site is at 40.7128, -74.0060. Urgent.",
	}
	s := ExtractSignals(tk)
	assert.Equal(t, []string{"arcgis"}, s.Software)
	assert.Equal(t, []string{"shapefile"}, s.DataFormats)
	assert.Equal(t, []string{"crash"}, s.ErrorIndicators)
	assert.Equal(t, []string{"gis.ops@example.org"}, s.EmailAddresses)
	assert.Equal(t, []string{"555-123-4567"}, s.PhoneNumbers)
	assert.Equal(t, []string{"40.7128, -74.0060"}, s.Coordinates)
	assert.Equal(t, "high", s.UrgencyLevel)
	assert.Empty(t, s.Operations)
}
