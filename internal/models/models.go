package models

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

type Category string

const (
	CategoryArcGISPro   Category = "arcgis_pro"
	CategoryWebMapping  Category = "web_mapping"
	CategoryDataIssues  Category = "data_issues"
	CategoryPermissions Category = "permissions"
	CategoryPrinting    Category = "printing"
	CategoryMobile      Category = "mobile"
	CategoryGeocoding   Category = "geocoding"
	CategoryGeneral     Category = "general"
)

// Categories lists the taxonomy in declaration order. Keyword ties resolve to
// the earlier entry.
var Categories = []Category{
	CategoryArcGISPro,
	CategoryWebMapping,
	CategoryDataIssues,
	CategoryPermissions,
	CategoryPrinting,
	CategoryMobile,
	CategoryGeocoding,
	CategoryGeneral,
}

func ParseCategory(s string) (Category, bool) {
	v := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range Categories {
		if c == v {
			return c, true
		}
	}
	return "", false
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

type Method string

const (
	MethodAI     Method = "ai_model"
	MethodRules  Method = "rule_based_weighted"
	MethodManual Method = "manual_review_required"
)

const (
	FieldID              = "id"
	FieldSubject         = "subject"
	FieldDescription     = "description"
	FieldPriority        = "priority"
	FieldStatus          = "status"
	FieldCategory        = "category"
	FieldSubcategory     = "subcategory"
	FieldGroup           = "group"
	FieldRequester       = "requester"
	FieldRequesterEmail  = "requester_email"
	FieldAssignedTo      = "assigned_to"
	FieldAssignedToEmail = "assigned_to_email"
	FieldCreatedDate     = "created_date"
	FieldUpdatedDate     = "updated_date"
	FieldDueDate         = "due_date"
	FieldNumber          = "number"
	FieldAdditionalInfo  = "additional_info"
)

// KnownFields is the canonical vocabulary backed by struct fields.
var KnownFields = []string{
	FieldID, FieldSubject, FieldDescription, FieldPriority, FieldStatus,
	FieldCategory, FieldSubcategory, FieldGroup, FieldRequester, FieldRequesterEmail,
	FieldAssignedTo, FieldAssignedToEmail, FieldCreatedDate, FieldUpdatedDate,
	FieldDueDate, FieldNumber, FieldAdditionalInfo,
}

// Ticket is the canonical, source-agnostic ticket record. Fields outside the
// known vocabulary live in Extra, keyed by their original name.
type Ticket struct {
	ID              string
	Subject         string
	Description     string
	Priority        string
	Status          string
	Category        string
	Subcategory     string
	Group           string
	Requester       string
	RequesterEmail  string
	AssignedTo      string
	AssignedToEmail string
	CreatedDate     string
	UpdatedDate     string
	DueDate         string
	Number          string
	AdditionalInfo  string
	Extra           map[string]string
}

func (t *Ticket) field(name string) *string {
	switch name {
	case FieldID:
		return &t.ID
	case FieldSubject:
		return &t.Subject
	case FieldDescription:
		return &t.Description
	case FieldPriority:
		return &t.Priority
	case FieldStatus:
		return &t.Status
	case FieldCategory:
		return &t.Category
	case FieldSubcategory:
		return &t.Subcategory
	case FieldGroup:
		return &t.Group
	case FieldRequester:
		return &t.Requester
	case FieldRequesterEmail:
		return &t.RequesterEmail
	case FieldAssignedTo:
		return &t.AssignedTo
	case FieldAssignedToEmail:
		return &t.AssignedToEmail
	case FieldCreatedDate:
		return &t.CreatedDate
	case FieldUpdatedDate:
		return &t.UpdatedDate
	case FieldDueDate:
		return &t.DueDate
	case FieldNumber:
		return &t.Number
	case FieldAdditionalInfo:
		return &t.AdditionalInfo
	}
	return nil
}

func (t Ticket) Get(name string) string {
	if p := t.field(name); p != nil {
		return *p
	}
	return t.Extra[name]
}

func (t *Ticket) Set(name, value string) {
	if p := t.field(name); p != nil {
		*p = value
		return
	}
	if t.Extra == nil {
		t.Extra = map[string]string{}
	}
	t.Extra[name] = value
}

// FieldNames returns the names of all non-empty fields: known fields in
// vocabulary order, then extras alphabetically.
func (t Ticket) FieldNames() []string {
	var out []string
	for _, name := range KnownFields {
		if strings.TrimSpace(t.Get(name)) != "" {
			out = append(out, name)
		}
	}
	extras := make([]string, 0, len(t.Extra))
	for k, v := range t.Extra {
		if strings.TrimSpace(v) != "" {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(out, extras...)
}

func (t Ticket) Map() map[string]string {
	out := map[string]string{}
	for _, name := range t.FieldNames() {
		out[name] = t.Get(name)
	}
	return out
}

func (t Ticket) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

type Signals struct {
	Software        []string `json:"software_mentioned"`
	DataFormats     []string `json:"data_formats"`
	Operations      []string `json:"operations"`
	ErrorIndicators []string `json:"error_indicators"`
	UrgencyLevel    string   `json:"urgency_level"`
	EmailAddresses  []string `json:"email_addresses"`
	PhoneNumbers    []string `json:"phone_numbers"`
	Coordinates     []string `json:"coordinates"`
}

type AnalysisResult struct {
	TicketID                string    `json:"ticket_id"`
	Category                Category  `json:"category"`
	Priority                Priority  `json:"priority"`
	Confidence              float64   `json:"confidence"`
	SuggestedResponse       string    `json:"suggested_response"`
	ActionPlan              []string  `json:"action_plan"`
	EstimatedResolutionTime string    `json:"estimated_resolution_time"`
	RequiredSkills          []string  `json:"required_skills"`
	AnalysisMethod          Method    `json:"analysis_method"`
	AnalyzedAt              time.Time `json:"analysis_timestamp"`
	FieldsUsed              []string  `json:"fields_used"`
	CategorySource          string    `json:"category_source,omitempty"`
	Model                   string    `json:"ai_model,omitempty"`
	PromptExportFile        string    `json:"prompt_export_file,omitempty"`
	Signals                 *Signals  `json:"signals,omitempty"`
}

type TicketAction struct {
	TicketID       string    `json:"ticket_id"`
	ActionType     string    `json:"action_type"`
	Timestamp      time.Time `json:"timestamp"`
	AutomationUsed bool      `json:"automation_used"`
	Category       string    `json:"category"`
	Priority       string    `json:"priority"`
	Outcome        string    `json:"outcome"`
}

type Feedback struct {
	TicketID     string    `json:"ticket_id"`
	AISuggestion string    `json:"ai_suggestion"`
	UserRating   int       `json:"user_rating"`
	UserFeedback string    `json:"user_feedback"`
	Timestamp    time.Time `json:"timestamp"`
}

type DailyStats struct {
	Date             string         `json:"date"`
	TicketsProcessed int            `json:"tickets_processed"`
	AutomatedCount   int            `json:"automated_count"`
	AutomationRate   float64        `json:"automation_rate"`
	TimeSavedMinutes int            `json:"time_saved_minutes"`
	Categories       map[string]int `json:"categories"`
}

type Effectiveness struct {
	AvgRating     float64 `json:"avg_rating"`
	TotalFeedback int     `json:"total_feedback"`
	PositiveRate  float64 `json:"positive_rate"`
}
