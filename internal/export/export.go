// Package export writes prompt documents for manual copy/paste into a model.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/gisdesk/ticket-agent/internal/ai"
	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/ranking"
)

// Sink stores one prompt document and reports where it went.
type Sink interface {
	Write(ctx context.Context, name string, doc Document) (string, error)
}

type Metadata struct {
	TicketID     string `json:"ticket_id" yaml:"ticket_id"`
	Timestamp    string `json:"timestamp" yaml:"timestamp"`
	AnalysisType string `json:"analysis_type" yaml:"analysis_type"`
	ExportReason string `json:"export_reason" yaml:"export_reason"`
}

type Document struct {
	Metadata          Metadata          `json:"metadata" yaml:"metadata"`
	SystemPrompt      string            `json:"system_prompt" yaml:"system_prompt"`
	UserPrompt        string            `json:"user_prompt" yaml:"user_prompt"`
	WeightedContext   string            `json:"weighted_context" yaml:"weighted_context"`
	WeightedFields    []ranking.Field   `json:"weighted_fields" yaml:"weighted_fields"`
	TicketData        map[string]string `json:"ticket_data" yaml:"ticket_data"`
	SuggestedModels   []string          `json:"suggested_models" yaml:"suggested_models"`
	UsageInstructions map[string]string `json:"usage_instructions" yaml:"usage_instructions"`
}

var SuggestedModels = []string{"gpt-4o", "gpt-4o-mini", "claude-3.5-sonnet", "gemini-pro", "llama-3.1-70b"}

const timestampLayout = "20060102_150405"

// Build assembles the prompt document for t.
func Build(t models.Ticket, mode ai.Mode, at time.Time) Document {
	weighted, fields := ranking.Context(t)
	return Document{
		Metadata: Metadata{
			TicketID:     t.ID,
			Timestamp:    at.Format(timestampLayout),
			AnalysisType: string(mode),
			ExportReason: "Manual AI model input",
		},
		SystemPrompt:    ai.SystemPrompt,
		UserPrompt:      ai.UserPrompt(t, mode, weighted),
		WeightedContext: weighted,
		WeightedFields:  fields,
		TicketData:      t.Map(),
		SuggestedModels: append([]string(nil), SuggestedModels...),
		UsageInstructions: map[string]string{
			"step1": "Copy the 'system_prompt' to your AI model's system message",
			"step2": "Copy the 'user_prompt' to your AI model's user input",
			"step3": "Run the model and get JSON response",
			"step4": "Use the response in your ticket management system",
		},
	}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName is ticket_<id>_<timestamp>_<microseconds>_prompt.json with the id
// made path safe.
func FileName(ticketID string, at time.Time) string {
	id := unsafeName.ReplaceAllString(ticketID, "_")
	if id == "" || id == "." || id == ".." {
		id = "unknown"
	}
	return fmt.Sprintf("ticket_%s_%s_%06d_prompt.json", id, at.Format(timestampLayout), at.Nanosecond()/int(time.Microsecond))
}

// maxSuffix bounds the numbered variants tried when a name is already taken.
const maxSuffix = 10000

// variant returns name with "_<n>" before its extension; n == 0 is name itself.
func variant(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	if strings.HasSuffix(name, "_prompt.json") {
		ext = "_prompt.json"
	}
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// FileSink writes documents as indented JSON under Dir. An existing file is
// never replaced; the name gets a numeric suffix instead.
type FileSink struct {
	Dir string
}

func (s FileSink) Write(ctx context.Context, name string, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create prompts dir: %w", err)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode prompt document: %w", err)
	}
	base := filepath.Base(name)
	for n := 0; n < maxSuffix; n++ {
		path := filepath.Join(s.Dir, variant(base, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write prompt document: %w", err)
		}
		_, err = f.Write(b)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("write prompt document: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("write prompt document: no free name for %s", base)
}

// MemorySink keeps documents in memory, keyed by name.
type MemorySink struct {
	mu   sync.Mutex
	docs map[string]Document
	Err  error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{docs: map[string]Document{}}
}

func (s *MemorySink) Write(_ context.Context, name string, doc Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	for n := 0; ; n++ {
		candidate := variant(name, n)
		if _, taken := s.docs[candidate]; taken {
			continue
		}
		s.docs[candidate] = doc
		return "memory://" + candidate, nil
	}
}

func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *MemorySink) Get(name string) (Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[name]
	return d, ok
}
