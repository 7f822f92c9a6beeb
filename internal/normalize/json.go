package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// FromJSON decodes a single JSON object into a canonical ticket.
func FromJSON(data []byte) (models.Ticket, error) {
	raw, err := DecodeObject(data)
	if err != nil {
		return models.Ticket{}, err
	}
	return FromMap(raw)
}

// DecodeObject decodes a JSON object, keeping numbers exact.
func DecodeObject(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyBody
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return raw, nil
}

// FromMap normalizes an already structured field mapping. Alias keys resolve
// to canonical fields, nested requester/assignee/category objects are
// flattened, and unknown scalar keys are kept as extras. No defaults are
// injected: a missing priority stays missing.
func FromMap(raw map[string]any) (models.Ticket, error) {
	values := map[string]string{}
	var leaves []leaf
	var custom string

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := normalizeTrim(k)
		if key == "" {
			continue
		}
		switch v := raw[k].(type) {
		case map[string]any:
			for sub, sv := range v {
				if s, ok := scalar(sv); ok {
					values[normalizeKey(key)+"/"+normalizeKey(sub)] = s
				}
			}
		case []any:
			if normalizeKey(key) == "custom_fields_values" {
				custom = customFieldList(v)
				continue
			}
			if s := joinScalars(v); s != "" {
				values[normalizeKey(key)] = s
				leaves = append(leaves, leaf{name: key, value: s})
			}
		default:
			if s, ok := scalar(v); ok {
				values[normalizeKey(key)] = s
				leaves = append(leaves, leaf{name: key, value: s})
			}
		}
	}

	lookup := func(name string) string {
		parts := strings.Split(name, "/")
		for i := range parts {
			parts[i] = normalizeKey(parts[i])
		}
		return values[strings.Join(parts, "/")]
	}

	var t models.Ticket
	applyAliases(&t, flatAliases, lookup)
	applyAliases(&t, incidentPaths, lookup)
	applyExtras(&t, jsonKnown, leaves)
	if custom != "" {
		if t.AdditionalInfo != "" {
			custom = t.AdditionalInfo + "; " + custom
		}
		t.AdditionalInfo = custom
	}
	err := finish(&t)
	return t, err
}

var jsonKnown = func() map[string]struct{} {
	out := knownNames(flatAliases)
	for k := range incidentKnown {
		out[k] = struct{}{}
	}
	return out
}()

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return normalizeTrim(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func joinScalars(list []any) string {
	var parts []string
	for _, item := range list {
		if s, ok := scalar(item); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func customFieldList(list []any) string {
	var parts []string
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := scalar(m["name"])
		value, _ := scalar(m["value"])
		if name == "" || value == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", name, value))
	}
	return strings.Join(parts, "; ")
}
