// Package respond builds the rule-based reply, action plan, resolution
// estimate and skill list for a resolved ticket.
package respond

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gisdesk/ticket-agent/internal/models"
)

const excerptLimit = 200

// ManualReviewResponse is the reply used when no analysis path is enabled.
const ManualReviewResponse = "Ticket received and will be reviewed manually."

// Template returns the reply body for a category. The switch is total over
// models.Category; unknown values take the general template.
func Template(c models.Category) string {
	switch c {
	case models.CategoryArcGISPro:
		return "Thank you for contacting GIS support regarding ArcGIS Pro. I'll help you resolve this issue. " +
			"Please ensure you're running the latest version of ArcGIS Pro and try the following steps: " +
			"1) Check system requirements, 2) Restart ArcGIS Pro, 3) Clear the application cache. " +
			"If the issue persists, please provide your ArcGIS Pro version and detailed error messages."
	case models.CategoryWebMapping:
		return "I'll assist you with your ArcGIS Online/Portal issue. Please verify: " +
			"1) Your internet connection is stable, 2) You're using a supported browser, 3) Clear browser cache and cookies. " +
			"For sharing issues, check your item permissions and organization settings."
	case models.CategoryDataIssues:
		return "For data-related issues, let's troubleshoot systematically: " +
			"1) Verify data source integrity, 2) Check coordinate systems and projections, 3) Validate attribute table structure. " +
			"Please share the data format and any error messages you're encountering."
	case models.CategoryPermissions:
		return "For access and permission issues: " +
			"1) Verify your login credentials, 2) Check with your administrator about role assignments, 3) Ensure you have the appropriate licenses. " +
			"Please confirm which specific resources you cannot access."
	case models.CategoryPrinting:
		return "For printing and map layout issues: " +
			"1) Check printer settings and connectivity, 2) Verify map layout dimensions, 3) Ensure sufficient system memory. " +
			"Please provide details about the specific printing error."
	case models.CategoryMobile:
		return "For mobile GIS application issues: " +
			"1) Check device compatibility, 2) Verify network connectivity, 3) Update the mobile app to the latest version. " +
			"Please specify which mobile app and device you're using."
	case models.CategoryGeocoding:
		return "For geocoding and address matching: " +
			"1) Verify address format and completeness, 2) Check geocoding service availability, 3) Review coordinate system settings. " +
			"Please share sample addresses that are failing to geocode."
	case models.CategoryGeneral:
		fallthrough
	default:
		return "Thank you for contacting GIS support. I'll help you resolve this issue. " +
			"Please provide more details about the specific problem you're experiencing, " +
			"including any error messages and steps you've already tried."
	}
}

// Greeting builds the personalised lead-in from requester, number, due date
// and an additional_info excerpt. Empty when none are present.
func Greeting(t models.Ticket) string {
	var parts []string
	if v := strings.TrimSpace(t.Requester); v != "" {
		parts = append(parts, fmt.Sprintf("Hi %s,", v))
	}
	if v := strings.TrimSpace(t.Number); v != "" {
		parts = append(parts, fmt.Sprintf("Regarding ticket #%s", v))
	}
	if v := strings.TrimSpace(t.DueDate); v != "" {
		parts = append(parts, fmt.Sprintf("Given the due date of %s, I'll prioritize this request.", v))
	}
	if v := strings.TrimSpace(t.AdditionalInfo); v != "" {
		parts = append(parts, fmt.Sprintf("Based on the additional information provided: %s", Excerpt(v, excerptLimit)))
	}
	return strings.Join(parts, " ")
}

// Excerpt cuts s to at most limit runes, marking a cut with "...".
func Excerpt(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// Compose joins the greeting and the category template with a blank line.
func Compose(c models.Category, t models.Ticket) string {
	body := Template(c)
	if g := Greeting(t); g != "" {
		return g + "\n\n" + body
	}
	return body
}

var baseSteps = []string{
	"Acknowledge ticket receipt",
	"Review issue details",
	"Reproduce issue if possible",
	"Research solution",
	"Implement fix",
	"Test resolution",
	"Follow up with user",
}

var escalationSteps = []string{
	"URGENT: Escalate to senior technician",
	"Contact user immediately",
}

// ActionPlan returns a fresh step list. High priority inserts the escalation
// steps at positions 1 and 2.
func ActionPlan(_ models.Category, p models.Priority) []string {
	plan := make([]string, 0, len(baseSteps)+len(escalationSteps))
	plan = append(plan, baseSteps[0])
	if p == models.PriorityHigh {
		plan = append(plan, escalationSteps...)
	}
	return append(plan, baseSteps[1:]...)
}

// EscalationSteps exposes the urgent steps for callers that inspect plans.
func EscalationSteps() []string {
	return append([]string(nil), escalationSteps...)
}

func ResolutionTime(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "2-4 hours"
	case models.PriorityLow:
		return "3-5 business days"
	case models.PriorityMedium:
		fallthrough
	default:
		return "1-2 business days"
	}
}

func RequiredSkills(c models.Category) []string {
	switch c {
	case models.CategoryArcGISPro:
		return []string{"ArcGIS Desktop", "Geoprocessing", "Python scripting"}
	case models.CategoryWebMapping:
		return []string{"ArcGIS Online", "Portal administration", "Web technologies"}
	case models.CategoryDataIssues:
		return []string{"Data management", "Geodatabase", "Spatial analysis"}
	case models.CategoryPermissions:
		return []string{"System administration", "User management", "Security"}
	case models.CategoryGeocoding:
		return []string{"Address matching", "Coordinate systems", "Spatial reference"}
	case models.CategoryPrinting, models.CategoryMobile, models.CategoryGeneral:
		fallthrough
	default:
		return []string{"General GIS knowledge"}
	}
}
