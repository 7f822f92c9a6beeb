// Package normalize turns raw ticket sources (JSON objects, flat-ticket XML and
// incident XML) into canonical models.Ticket records.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gisdesk/ticket-agent/internal/models"
)

var (
	ErrSkipped   = errors.New("ticket has neither subject nor description")
	ErrNotObject = errors.New("ticket payload is not a JSON object")
	ErrEmptyBody = errors.New("ticket payload is empty")
)

// ParseError reports markup or JSON that could not be decoded at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed ticket source: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

const (
	DefaultPriority = "Medium"
	DefaultStatus   = "Open"
)

type fieldAliases struct {
	field   string
	aliases []string
}

// flatAliases is tried in order for every flat record; the first non-empty
// alias wins for each canonical field.
var flatAliases = []fieldAliases{
	{models.FieldID, []string{"id", "ticket_id", "ticketId", "number"}},
	{models.FieldSubject, []string{"subject", "title", "summary", "name"}},
	{models.FieldDescription, []string{"description", "body", "details", "content", "description_no_html"}},
	{models.FieldPriority, []string{"priority", "urgency", "severity"}},
	{models.FieldStatus, []string{"status", "state"}},
	{models.FieldCategory, []string{"category", "type", "category_name"}},
	{models.FieldSubcategory, []string{"subcategory", "sub_category", "subcategory_name"}},
	{models.FieldGroup, []string{"group", "group_assignee", "team"}},
	{models.FieldRequester, []string{"requester", "requester_name", "reporter", "submitter"}},
	{models.FieldRequesterEmail, []string{"requester_email", "reporter_email", "email"}},
	{models.FieldAssignedTo, []string{"assigned_to", "assignee", "assignee_name", "owner"}},
	{models.FieldAssignedToEmail, []string{"assigned_to_email", "assignee_email"}},
	{models.FieldCreatedDate, []string{"created_date", "created_at", "created"}},
	{models.FieldUpdatedDate, []string{"updated_date", "updated_at", "modified"}},
	{models.FieldDueDate, []string{"due_date", "due_at", "due"}},
	{models.FieldNumber, []string{"number", "ticket_number"}},
	{models.FieldAdditionalInfo, []string{"additional_info", "notes"}},
}

// incidentPaths addresses nested incident elements with slash-separated paths.
var incidentPaths = []fieldAliases{
	{models.FieldID, []string{"id", "number"}},
	{models.FieldSubject, []string{"subject", "name", "title"}},
	{models.FieldDescription, []string{"description", "description_no_html"}},
	{models.FieldPriority, []string{"priority"}},
	{models.FieldStatus, []string{"status", "state"}},
	{models.FieldCategory, []string{"category/name", "category"}},
	{models.FieldSubcategory, []string{"subcategory/name", "subcategory"}},
	{models.FieldGroup, []string{"group_assignee/name", "group/name", "group"}},
	{models.FieldRequester, []string{"requester/name", "requester"}},
	{models.FieldRequesterEmail, []string{"requester/email", "requester_email"}},
	{models.FieldAssignedTo, []string{"assignee/name", "assigned_to", "assignee"}},
	{models.FieldAssignedToEmail, []string{"assignee/email", "assigned_to_email"}},
	{models.FieldCreatedDate, []string{"created_at", "created_date"}},
	{models.FieldUpdatedDate, []string{"updated_at", "updated_date"}},
	{models.FieldDueDate, []string{"due_at", "due_date"}},
	{models.FieldNumber, []string{"number"}},
	{models.FieldAdditionalInfo, []string{"additional_info"}},
}

var (
	flatKnown     = knownNames(flatAliases)
	incidentKnown = knownNames(incidentPaths)
)

// retainedAliases are alias keys that classification reads under their own
// name, so they are kept as extras even when they fed a canonical field.
var retainedAliases = map[string]struct{}{
	"name":  {},
	"state": {},
}

func knownNames(table []fieldAliases) map[string]struct{} {
	out := map[string]struct{}{}
	for _, fa := range table {
		out[normalizeKey(fa.field)] = struct{}{}
		for _, a := range fa.aliases {
			head, _, _ := strings.Cut(a, "/")
			key := normalizeKey(head)
			if _, keep := retainedAliases[key]; keep {
				continue
			}
			out[key] = struct{}{}
		}
	}
	return out
}

// lookupFunc returns the trimmed value stored under a raw name or path.
type lookupFunc func(name string) string

func getFieldAny(lookup lookupFunc, names ...string) string {
	for _, name := range names {
		if v := normalizeTrim(lookup(name)); v != "" {
			return v
		}
	}
	return ""
}

func applyAliases(t *models.Ticket, table []fieldAliases, lookup lookupFunc) {
	for _, fa := range table {
		if t.Get(fa.field) != "" {
			continue
		}
		if v := getFieldAny(lookup, fa.aliases...); v != "" {
			t.Set(fa.field, v)
		}
	}
}

// applyExtras copies every non-alias leaf verbatim so custom fields survive.
func applyExtras(t *models.Ticket, known map[string]struct{}, leaves []leaf) {
	for _, l := range leaves {
		key := normalizeKey(l.name)
		if _, ok := known[key]; ok {
			continue
		}
		name := l.name
		if _, ok := retainedAliases[key]; ok {
			name = key
		}
		v := normalizeTrim(l.value)
		if v == "" || t.Get(name) != "" {
			continue
		}
		t.Set(name, v)
	}
}

type leaf struct {
	name  string
	value string
}

// finish injects the synthetic id and enforces the subject/description rule.
func finish(t *models.Ticket) error {
	if t.ID == "" {
		t.ID = synthesizeID()
	}
	if t.Subject == "" && t.Description == "" {
		return ErrSkipped
	}
	return nil
}

var (
	idSeq atomic.Uint64
	now   = time.Now
)

func synthesizeID() string {
	return fmt.Sprintf("TKT-%s-%04d", now().UTC().Format("20060102-150405.000000"), idSeq.Add(1)%10000)
}

func normalizeTrim(v string) string {
	return strings.TrimSpace(v)
}

func normalizeKey(k string) string {
	k = strings.ReplaceAll(k, "\ufeff", "")
	return strings.ToLower(strings.TrimSpace(k))
}
