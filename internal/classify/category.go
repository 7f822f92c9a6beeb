// Package classify resolves a canonical ticket to a category and a priority
// using static alias and keyword tables. Every function here is pure.
package classify

import (
	"strings"

	"github.com/gisdesk/ticket-agent/internal/models"
)

const (
	ExplicitConfidence = 0.95
	InferredConfidence = 0.9
	DefaultConfidence  = 0.5

	keywordBase = 0.6
	keywordStep = 0.1
	keywordCap  = 0.95
)

// Resolution is a resolved category with its provenance.
type Resolution struct {
	Category   models.Category
	Confidence float64
	// Source is the ticket field that produced the hint, or "keywords" /
	// "default" for the fallback paths.
	Source  string
	Matched []string
}

type alias struct {
	term     string
	category models.Category
}

// aliases maps metadata terms to categories. Order only matters for equal
// length substring hits.
var aliases = []alias{
	{"arcgis_pro", models.CategoryArcGISPro},
	{"arcgis pro", models.CategoryArcGISPro},
	{"arcgis desktop", models.CategoryArcGISPro},
	{"arcmap", models.CategoryArcGISPro},
	{"arcgis", models.CategoryArcGISPro},
	{"geoprocessing", models.CategoryArcGISPro},
	{"toolbox", models.CategoryArcGISPro},

	{"web_mapping", models.CategoryWebMapping},
	{"web mapping", models.CategoryWebMapping},
	{"arcgis online", models.CategoryWebMapping},
	{"experience builder", models.CategoryWebMapping},
	{"story map", models.CategoryWebMapping},
	{"web map", models.CategoryWebMapping},
	{"web app", models.CategoryWebMapping},
	{"dashboard", models.CategoryWebMapping},
	{"portal", models.CategoryWebMapping},
	{"online", models.CategoryWebMapping},
	{"agol", models.CategoryWebMapping},

	{"data_issues", models.CategoryDataIssues},
	{"feature class", models.CategoryDataIssues},
	{"geodatabase", models.CategoryDataIssues},
	{"shapefile", models.CategoryDataIssues},
	{"attribute", models.CategoryDataIssues},
	{"geometry", models.CategoryDataIssues},
	{"spatial", models.CategoryDataIssues},
	{"layer", models.CategoryDataIssues},
	{"data", models.CategoryDataIssues},

	{"permissions", models.CategoryPermissions},
	{"permission", models.CategoryPermissions},
	{"credential", models.CategoryPermissions},
	{"license", models.CategoryPermissions},
	{"sharing", models.CategoryPermissions},
	{"access", models.CategoryPermissions},
	{"login", models.CategoryPermissions},

	{"large format", models.CategoryPrinting},
	{"map book", models.CategoryPrinting},
	{"printing", models.CategoryPrinting},
	{"plotter", models.CategoryPrinting},
	{"print", models.CategoryPrinting},

	{"quickcapture", models.CategoryMobile},
	{"field maps", models.CategoryMobile},
	{"survey123", models.CategoryMobile},
	{"collector", models.CategoryMobile},
	{"workforce", models.CategoryMobile},
	{"mobile", models.CategoryMobile},

	{"reverse geocod", models.CategoryGeocoding},
	{"geocoding", models.CategoryGeocoding},
	{"geocode", models.CategoryGeocoding},
	{"locator", models.CategoryGeocoding},
	{"address", models.CategoryGeocoding},
}

type hintSource struct {
	field      string
	confidence float64
}

// hintSources are the metadata fields consulted for an explicit category, in
// order. The first one that matches wins.
var hintSources = []hintSource{
	{models.FieldCategory, ExplicitConfidence},
	{models.FieldSubcategory, ExplicitConfidence},
	{models.FieldStatus, InferredConfidence},
	{"state", InferredConfidence},
	{"name", InferredConfidence},
	{models.FieldSubject, InferredConfidence},
}

// keywords drives the free-text fallback, keyed in models.Categories order.
var keywords = map[models.Category][]string{
	models.CategoryArcGISPro:   {"arcgis pro", "desktop", "pro software", "geoprocessing", "toolbox"},
	models.CategoryWebMapping:  {"web map", "online", "portal", "dashboard", "web app", "agol"},
	models.CategoryDataIssues:  {"data", "layer", "shapefile", "geodatabase", "attribute", "geometry"},
	models.CategoryPermissions: {"access", "permission", "login", "credential", "authorization", "sharing"},
	models.CategoryPrinting:    {"print", "map book", "layout", "export", "pdf", "large format"},
	models.CategoryMobile:      {"mobile", "field", "collector", "survey123", "workforce", "android", "ios"},
	models.CategoryGeocoding:   {"geocode", "address", "location", "coordinate", "reverse geocoding"},
	models.CategoryGeneral:     {"help", "question", "support", "issue", "problem"},
}

// MatchAlias maps one metadata string to a category. Exact matches beat
// substring matches; among substrings the longest term wins.
func MatchAlias(value string) (models.Category, string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", "", false
	}
	for _, a := range aliases {
		if v == a.term {
			return a.category, a.term, true
		}
	}
	var best *alias
	for i := range aliases {
		a := &aliases[i]
		if !strings.Contains(v, a.term) {
			continue
		}
		if best == nil || len(a.term) > len(best.term) ||
			(len(a.term) == len(best.term) && categoryIndex(a.category) < categoryIndex(best.category)) {
			best = a
		}
	}
	if best == nil {
		return "", "", false
	}
	return best.category, best.term, true
}

// HintFromMetadata looks for a category stated in the ticket's own metadata.
// The bool is false when no source field carries a recognisable hint.
func HintFromMetadata(t models.Ticket) (Resolution, bool) {
	for _, src := range hintSources {
		cat, term, ok := MatchAlias(t.Get(src.field))
		if !ok {
			continue
		}
		return Resolution{
			Category:   cat,
			Confidence: src.confidence,
			Source:     src.field,
			Matched:    []string{term},
		}, true
	}
	return Resolution{}, false
}

// FreeText joins the text fields scanned by keyword fallbacks, lower-cased.
func FreeText(t models.Ticket) string {
	parts := make([]string, 0, 3)
	for _, v := range []string{t.Description, t.Subject, t.AdditionalInfo} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// FromKeywords scans text for the first category, in declaration order, with
// at least one keyword hit.
func FromKeywords(text string) (Resolution, bool) {
	text = strings.ToLower(text)
	for _, cat := range models.Categories {
		var hits []string
		for _, kw := range keywords[cat] {
			if strings.Contains(text, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) == 0 {
			continue
		}
		conf := keywordBase + keywordStep*float64(len(hits)-1)
		if conf > keywordCap {
			conf = keywordCap
		}
		return Resolution{Category: cat, Confidence: round2(conf), Source: "keywords", Matched: hits}, true
	}
	return Resolution{}, false
}

// ResolveCategory runs metadata hints, then keywords, then the general default.
func ResolveCategory(t models.Ticket) Resolution {
	if r, ok := HintFromMetadata(t); ok {
		return r
	}
	if r, ok := FromKeywords(FreeText(t)); ok {
		return r
	}
	return Resolution{Category: models.CategoryGeneral, Confidence: DefaultConfidence, Source: "default"}
}

func categoryIndex(c models.Category) int {
	for i, v := range models.Categories {
		if v == c {
			return i
		}
	}
	return len(models.Categories)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
