package classify

import (
	"regexp"
	"strings"

	"github.com/gisdesk/ticket-agent/internal/models"
)

var (
	signalSoftware   = []string{"arcgis", "qgis", "autocad", "erdas", "envi", "global mapper"}
	signalFormats    = []string{"shapefile", "geodatabase", "kml", "geojson", "raster", "feature class"}
	signalOperations = []string{"buffer", "clip", "merge", "dissolve", "spatial join", "geocoding"}
	signalErrors     = []string{"error", "crash", "freeze", "slow", "not responding", "corrupt"}
	signalUrgency    = []string{"urgent", "asap", "critical", "emergency", "down", "broken"}

	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
	coordPattern = regexp.MustCompile(`-?\d{1,3}\.\d+,\s*-?\d{1,3}\.\d+`)
)

// ExtractSignals pulls GIS terms and contact details out of the ticket text.
func ExtractSignals(t models.Ticket) models.Signals {
	raw := strings.Join([]string{t.Subject, t.Description, t.AdditionalInfo}, "\n")
	lower := strings.ToLower(raw)

	s := models.Signals{
		Software:        matches(lower, signalSoftware),
		DataFormats:     matches(lower, signalFormats),
		Operations:      matches(lower, signalOperations),
		ErrorIndicators: matches(lower, signalErrors),
		UrgencyLevel:    "normal",
		EmailAddresses:  orEmpty(emailPattern.FindAllString(raw, -1)),
		PhoneNumbers:    orEmpty(phonePattern.FindAllString(raw, -1)),
		Coordinates:     orEmpty(coordPattern.FindAllString(raw, -1)),
	}
	if containsAny(lower, signalUrgency) {
		s.UrgencyLevel = "high"
	}
	return s
}

func matches(text string, list []string) []string {
	out := []string{}
	for _, kw := range list {
		if strings.Contains(text, kw) {
			out = append(out, kw)
		}
	}
	return out
}

func orEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
