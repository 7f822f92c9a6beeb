package normalize

import (
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"golang.org/x/net/html/charset"

	"github.com/gisdesk/ticket-agent/internal/models"
)

type Dialect string

const (
	DialectNone     Dialect = ""
	DialectFlat     Dialect = "ticket"
	DialectIncident Dialect = "incident"
	DialectMixed    Dialect = "mixed"
)

// Batch is the outcome of one markup document.
type Batch struct {
	Dialect Dialect         `json:"dialect"`
	Tickets []models.Ticket `json:"tickets"`
	Skipped int             `json:"skipped"`
}

type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	buf      strings.Builder
	text     string
}

func (n *node) child(name string) *node {
	key := normalizeKey(name)
	for _, c := range n.children {
		if normalizeKey(c.name) == key {
			return c
		}
	}
	return nil
}

func (n *node) childrenNamed(name string) []*node {
	var out []*node
	key := normalizeKey(name)
	for _, c := range n.children {
		if normalizeKey(c.name) == key {
			out = append(out, c)
		}
	}
	return out
}

// collect finds every element with the given name, without descending into a
// match.
func (n *node) collect(name string, out []*node) []*node {
	for _, c := range n.children {
		if normalizeKey(c.name) == normalizeKey(name) {
			out = append(out, c)
			continue
		}
		out = c.collect(name, out)
	}
	return out
}

// path resolves "a/b" against element children; a single segment falls back
// to an attribute of the same name.
func (n *node) path(p string) string {
	cur := n
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		next := cur.child(seg)
		if next == nil {
			if i == len(segments)-1 {
				return cur.attr(seg)
			}
			return ""
		}
		cur = next
	}
	if len(cur.children) > 0 {
		return ""
	}
	return cur.text
}

func (n *node) attr(name string) string {
	key := normalizeKey(name)
	for _, a := range n.attrs {
		if normalizeKey(a.Name.Local) == key {
			return a.Value
		}
	}
	return ""
}

func (n *node) leaves() []leaf {
	var out []leaf
	for _, c := range n.children {
		if len(c.children) == 0 {
			out = append(out, leaf{name: c.name, value: c.text})
		}
	}
	for _, a := range n.attrs {
		out = append(out, leaf{name: a.Name.Local, value: a.Value})
	}
	return out
}

func parseTree(r io.Reader) (*node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			n := stack[len(stack)-1]
			n.text = normalizeTrim(n.buf.String())
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].buf.Write(t)
			}
		}
	}
	if root == nil {
		return nil, &ParseError{Err: errors.New("document has no root element")}
	}
	return root, nil
}

// record is a ticket or incident element tagged with its dialect.
type record struct {
	n       *node
	dialect Dialect
}

// scan walks the tree in document order and returns every ticket or incident
// element, without descending into a match.
func (n *node) scan(out []record) []record {
	for _, c := range n.children {
		switch normalizeKey(c.name) {
		case "ticket":
			out = append(out, record{n: c, dialect: DialectFlat})
		case "incident":
			out = append(out, record{n: c, dialect: DialectIncident})
		default:
			out = c.scan(out)
		}
	}
	return out
}

// ParseXML decodes a ticket export. The root element selects the dialect;
// unknown roots are scanned for ticket or incident elements at any depth and
// the records keep their document order.
func ParseXML(r io.Reader) (Batch, error) {
	root, err := parseTree(r)
	if err != nil {
		return Batch{}, err
	}

	var records []record
	switch normalizeKey(root.name) {
	case "tickets":
		for _, n := range root.childrenNamed("ticket") {
			records = append(records, record{n: n, dialect: DialectFlat})
		}
	case "incidents":
		for _, n := range root.childrenNamed("incident") {
			records = append(records, record{n: n, dialect: DialectIncident})
		}
	case "ticket":
		records = []record{{n: root, dialect: DialectFlat}}
	case "incident":
		records = []record{{n: root, dialect: DialectIncident}}
	default:
		records = root.scan(nil)
	}

	batch := Batch{Tickets: []models.Ticket{}}
	for _, rec := range records {
		switch {
		case batch.Dialect == DialectNone:
			batch.Dialect = rec.dialect
		case batch.Dialect != rec.dialect:
			batch.Dialect = DialectMixed
		}

		var (
			t   models.Ticket
			err error
		)
		if rec.dialect == DialectIncident {
			t, err = incidentTicket(rec.n)
		} else {
			t, err = flatTicket(rec.n)
		}
		if err != nil {
			batch.Skipped++
			continue
		}
		batch.Tickets = append(batch.Tickets, t)
	}
	return batch, nil
}

func ParseXMLString(s string) (Batch, error) {
	return ParseXML(strings.NewReader(s))
}

func flatTicket(n *node) (models.Ticket, error) {
	var t models.Ticket
	applyAliases(&t, flatAliases, n.path)
	applyExtras(&t, flatKnown, n.leaves())
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	t.Description = markdownDescription(t.Description)
	err := finish(&t)
	return t, err
}

func incidentTicket(n *node) (models.Ticket, error) {
	var t models.Ticket
	applyAliases(&t, incidentPaths, n.path)
	applyExtras(&t, incidentKnown, n.leaves())

	if custom := customFields(n); custom != "" {
		if t.AdditionalInfo != "" {
			custom = t.AdditionalInfo + "; " + custom
		}
		t.AdditionalInfo = custom
	}
	if t.Priority == "" {
		t.Priority = DefaultPriority
	}
	if t.Status == "" {
		t.Status = DefaultStatus
	}
	t.Description = markdownDescription(t.Description)
	err := finish(&t)
	return t, err
}

// customFields flattens custom_fields_value{name,value} entries into
// "name: value; name: value".
func customFields(n *node) string {
	var parts []string
	for _, cf := range n.collect("custom_fields_value", nil) {
		name := normalizeTrim(cf.path("name"))
		value := normalizeTrim(cf.path("value"))
		if name == "" || value == "" {
			continue
		}
		parts = append(parts, name+": "+value)
	}
	return strings.Join(parts, "; ")
}

var htmlTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

func markdownDescription(s string) string {
	if !htmlTag.MatchString(s) {
		return s
	}
	converter := md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})
	out, err := converter.ConvertString(s)
	if err != nil || normalizeTrim(out) == "" {
		return s
	}
	return normalizeTrim(out)
}
