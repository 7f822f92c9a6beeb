package ai

import (
	"fmt"
	"strings"

	"github.com/gisdesk/ticket-agent/internal/models"
)

type Mode string

const (
	ModeFull       Mode = "full"
	ModeCategorize Mode = "categorize_only"
)

func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.TrimSpace(s)) {
	case ModeFull, "":
		return ModeFull, true
	case ModeCategorize:
		return ModeCategorize, true
	}
	return "", false
}

const SystemPrompt = `You are an expert GIS Technical Support AI Agent specializing in Esri ArcGIS products and geospatial technologies.

Your role is to:
1. Analyze GIS-related support tickets
2. Categorize issues accurately
3. Determine appropriate priority levels
4. Generate helpful, technical responses
5. Create actionable resolution plans

Categories you work with:
- arcgis_pro: ArcGIS Desktop Pro software issues
- web_mapping: ArcGIS Online, Portal, web applications
- data_issues: Spatial data, layers, geodatabases
- permissions: Access rights, authentication, sharing
- printing: Map layouts, exports, large format printing
- mobile: Field apps (Collector, Survey123, Workforce)
- geocoding: Address matching and coordinate services
- general: General inquiries and other issues

Priority Levels:
- high: System down, data corruption, blocking production
- medium: Feature not working, workflow disruption
- low: Enhancement requests, training questions

Respond professionally with technical accuracy and provide step-by-step solutions when possible.`

const categorizeFormat = `Required JSON format:
{
    "category": "category_name",
    "priority": "high|medium|low",
    "confidence": 0.95
}`

const fullFormat = `Please provide:
1. Category classification
2. Priority assessment
3. Detailed technical response with solution steps
4. Action plan for resolution

Format your response as JSON:
{
    "category": "category_name",
    "priority": "high|medium|low",
    "confidence": 0.95,
    "suggested_response": "Detailed technical response here...",
    "action_plan": ["Step 1", "Step 2", "Step 3"],
    "estimated_resolution_time": "X hours/days",
    "required_skills": ["skill1", "skill2"]
}`

// UserPrompt renders the ticket for the model. weightedContext is the ranked
// field block and may be empty.
func UserPrompt(t models.Ticket, mode Mode, weightedContext string) string {
	id := firstNonEmpty(t.ID, "Unknown")
	subject := firstNonEmpty(t.Subject, t.Get("name"), "No subject")
	description := firstNonEmpty(t.Description, t.Get("description_no_html"), "No description")

	var b strings.Builder
	if mode == ModeCategorize {
		b.WriteString("Analyze this GIS support ticket and respond with ONLY a JSON object:\n\n")
	} else {
		b.WriteString("Analyze this GIS support ticket and provide a comprehensive response:\n\n")
	}
	fmt.Fprintf(&b, "Ticket ID: %s\nSubject: %s\nDescription: %s", id, subject, description)
	if strings.TrimSpace(weightedContext) != "" {
		fmt.Fprintf(&b, "\n\nAdditional Context (High Priority Ticket Data):\n%s", weightedContext)
	}
	b.WriteString("\n\n")
	if mode == ModeCategorize {
		b.WriteString(categorizeFormat)
	} else {
		b.WriteString(fullFormat)
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
