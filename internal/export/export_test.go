package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisdesk/ticket-agent/internal/ai"
	"github.com/gisdesk/ticket-agent/internal/models"
)

var at = time.Date(2025, 6, 25, 10, 23, 44, 0, time.UTC)

func TestFileName(t *testing.T) {
	assert.Equal(t, "ticket_31149_20250625_102344_000000_prompt.json", FileName("31149", at))
	assert.Equal(t, "ticket_.._etc_passwd_20250625_102344_000000_prompt.json", FileName("../etc/passwd", at))
	assert.Equal(t, "ticket_unknown_20250625_102344_000000_prompt.json", FileName("", at))

	later := at.Add(250*time.Millisecond + 17*time.Microsecond)
	assert.Equal(t, "ticket_31149_20250625_102344_250017_prompt.json", FileName("31149", later))
	assert.NotEqual(t, FileName("31149", at), FileName("31149", later))
}

func TestBuildDocument(t *testing.T) {
	tk := models.Ticket{ID: "9", Subject: "Layer missing", Priority: "High", Requester: "Ana"}
	doc := Build(tk, ai.ModeCategorize, at)

	assert.Equal(t, "9", doc.Metadata.TicketID)
	assert.Equal(t, "categorize_only", doc.Metadata.AnalysisType)
	assert.Equal(t, "20250625_102344", doc.Metadata.Timestamp)
	assert.Equal(t, ai.SystemPrompt, doc.SystemPrompt)
	assert.Contains(t, doc.UserPrompt, doc.WeightedContext)
	assert.Equal(t, "priority", doc.WeightedFields[0].Name)
	assert.Equal(t, "Ana", doc.TicketData["requester"])
	assert.Len(t, doc.UsageInstructions, 4)
}

func TestFileSinkWritesJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")
	sink := FileSink{Dir: dir}
	doc := Build(models.Ticket{ID: "1", Description: "Basemap blank"}, ai.ModeFull, at)

	path, err := sink.Write(context.Background(), FileName("1", at), doc)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ticket_1_20250625_102344_000000_prompt.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	for _, key := range []string{"metadata", "system_prompt", "user_prompt", "ticket_data", "suggested_models", "usage_instructions", "weighted_fields"} {
		assert.Contains(t, decoded, key)
	}
}

func TestFileSinkConcurrentSameTicketKeepsEveryDocument(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{Dir: dir}
	name := FileName("T-1", at)

	const writers = 16
	paths := make([]string, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc := Build(models.Ticket{ID: "T-1", Description: fmt.Sprintf("write %d", i)}, ai.ModeFull, at)
			paths[i], errs[i] = sink.Write(context.Background(), name, doc)
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[paths[i]], "duplicate path %s", paths[i])
		seen[paths[i]] = true
		assert.True(t, strings.HasSuffix(paths[i], "_prompt.json"), paths[i])
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
	assert.Contains(t, seen, filepath.Join(dir, name))
	assert.Contains(t, seen, filepath.Join(dir, "ticket_T-1_20250625_102344_000000_1_prompt.json"))
}

func TestFileSinkFailsOnUnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := FileSink{Dir: file}.Write(context.Background(), "a.json", Document{})
	assert.Error(t, err)
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	_, err := s.Write(context.Background(), "b.json", Document{SystemPrompt: "b"})
	require.NoError(t, err)
	_, err = s.Write(context.Background(), "a.json", Document{SystemPrompt: "a"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.json", "b.json"}, s.Names())
	d, ok := s.Get("a.json")
	assert.True(t, ok)
	assert.Equal(t, "a", d.SystemPrompt)

	path, err := s.Write(context.Background(), "a.json", Document{SystemPrompt: "again"})
	require.NoError(t, err)
	assert.Equal(t, "memory://a_1.json", path)
	d, _ = s.Get("a.json")
	assert.Equal(t, "a", d.SystemPrompt)
}
