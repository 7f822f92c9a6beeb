// Package ranking orders canonical ticket fields by a static weight table and
// renders them as a prompt-ready context block.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// DefaultWeight applies to any field missing from Weights.
const DefaultWeight = 1

// Weights is the static field weight table. Read-only after init.
var Weights = map[string]int{
	models.FieldPriority:       10,
	models.FieldCategory:       10,
	models.FieldSubcategory:    10,
	models.FieldAdditionalInfo: 10,

	models.FieldSubject:     9,
	models.FieldDescription: 9,
	models.FieldStatus:      9,

	models.FieldGroup:   8,
	models.FieldDueDate: 8,
	models.FieldNumber:  8,

	models.FieldRequester:   6,
	models.FieldAssignedTo:  6,
	models.FieldCreatedDate: 6,
	models.FieldUpdatedDate: 6,

	models.FieldRequesterEmail:  3,
	models.FieldAssignedToEmail: 3,
	models.FieldID:              3,
}

type tier struct {
	min   int
	label string
}

// tiers are checked top-down; the first whose floor the weight reaches wins.
var tiers = []tier{
	{10, "critical"},
	{9, "high"},
	{8, "elevated"},
	{6, "standard"},
	{3, "supplementary"},
	{0, "additional"},
}

// TierFor names the band a weight falls into.
func TierFor(weight int) string {
	for _, t := range tiers {
		if weight >= t.min {
			return t.label
		}
	}
	return tiers[len(tiers)-1].label
}

// WeightFor returns the table weight of a field, or DefaultWeight.
func WeightFor(field string) int {
	if w, ok := Weights[field]; ok {
		return w
	}
	return DefaultWeight
}

// Field is one weight-tagged ticket field.
type Field struct {
	Name   string `json:"field" yaml:"field"`
	Label  string `json:"label" yaml:"label"`
	Value  string `json:"value" yaml:"value"`
	Weight int    `json:"weight" yaml:"weight"`
	Tier   string `json:"tier" yaml:"tier"`
}

// Label turns a field key such as "assigned_to_email" into "Assigned To Email".
// Casers carry state, so each call builds its own.
func Label(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// Rank lists the non-empty fields of t. Table fields come first by descending
// weight then name; fields outside the table follow alphabetically.
func Rank(t models.Ticket) []Field {
	var known, extra []Field
	for _, name := range t.FieldNames() {
		value := strings.TrimSpace(t.Get(name))
		if value == "" {
			continue
		}
		w, listed := Weights[name]
		if !listed {
			w = DefaultWeight
		}
		f := Field{Name: name, Label: Label(name), Value: value, Weight: w, Tier: TierFor(w)}
		if listed {
			known = append(known, f)
		} else {
			extra = append(extra, f)
		}
	}
	sort.SliceStable(known, func(i, j int) bool {
		if known[i].Weight != known[j].Weight {
			return known[i].Weight > known[j].Weight
		}
		return known[i].Name < known[j].Name
	})
	sort.SliceStable(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	return append(known, extra...)
}

// Render formats ranked fields as a tiered text block with one header per tier.
func Render(fields []Field) string {
	var b strings.Builder
	current := ""
	for _, f := range fields {
		if f.Tier != current {
			if current != "" {
				b.WriteString("\n")
			}
			current = f.Tier
			fmt.Fprintf(&b, "[%s] %s fields\n", strings.ToUpper(f.Tier), Label(f.Tier))
		}
		fmt.Fprintf(&b, "- %s (weight %d): %s\n", f.Label, f.Weight, f.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Context ranks and renders in one step.
func Context(t models.Ticket) (string, []Field) {
	fields := Rank(t)
	return Render(fields), fields
}
