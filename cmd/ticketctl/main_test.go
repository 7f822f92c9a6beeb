package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisdesk/ticket-agent/internal/models"
	"github.com/gisdesk/ticket-agent/internal/service"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<tickets>
  <ticket id="X1">
    <subject>Geocode service down</subject>
    <description>The address locator returns no candidates</description>
    <requester>Sam</requester>
  </ticket>
  <ticket id="X2"><status>Open</status></ticket>
  <ticket id="X3">
    <subject>Portal sharing</subject>
    <description>Cannot share the web map with my group</description>
  </ticket>
</tickets>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootFlags.output = "json"
	rootFlags.envFile = ""
	analyzeFlags.workers = service.DefaultWorkers
	analyzeFlags.rules = false
	analyzeFlags.verbose = false
	promptFlags.mode = "full"
	promptFlags.dir = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseXML(t *testing.T) {
	path := writeFile(t, "export.xml", sampleXML)
	out, err := run(t, "parse", path)
	require.NoError(t, err)

	var got parseOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, "X1", got.Tickets[0]["id"])
	assert.Equal(t, "Medium", got.Tickets[0]["priority"])
}

func TestParseJSONArrayAsYAML(t *testing.T) {
	path := writeFile(t, "tickets.json", `[
		{"ticket_id": 101, "title": "Layer missing", "description": "feature class vanished"},
		{"status": "Open"},
		{"id": "102", "subject": "Plotter", "description": "large format print is cut off"}
	]`)
	out, err := run(t, "parse", path, "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "total: 2\n")
	assert.Contains(t, out, "skipped: 1\n")
	assert.Contains(t, out, `id: "101"`)
	assert.NotContains(t, out, "{")
}

func TestParseRejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, "export.xml", sampleXML)
	_, err := run(t, "parse", path, "-o", "toml")
	require.Error(t, err)
}

func TestAnalyzeRulesOnly(t *testing.T) {
	env := writeFile(t, "test.env", "EXPORT_PROMPTS=false\nAI_ENABLED=false\n")
	path := writeFile(t, "export.xml", sampleXML)
	out, err := run(t, "analyze", path, "--rules-only", "--env", env)
	require.NoError(t, err)

	var got analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 2, got.Summary.Rules)
	assert.Equal(t, "X1", got.Results[0].TicketID)
	assert.Equal(t, models.CategoryGeocoding, got.Results[0].Category)
	assert.Equal(t, models.MethodRules, got.Results[1].AnalysisMethod)
	assert.True(t, strings.HasPrefix(got.Results[0].SuggestedResponse, "Hi Sam,"))
}

func TestPromptExportToDir(t *testing.T) {
	path := writeFile(t, "export.xml", sampleXML)
	dir := t.TempDir()
	out, err := run(t, "prompt", path, "--mode", "categorize_only", "--dir", dir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	for _, p := range lines {
		assert.Equal(t, dir, filepath.Dir(p))
		assert.Contains(t, filepath.Base(p), "_prompt.json")
		b, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Contains(t, string(b), `"analysis_type": "categorize_only"`)
	}
}

func TestPromptPrintsDocuments(t *testing.T) {
	path := writeFile(t, "export.xml", sampleXML)
	out, err := run(t, "prompt", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"system_prompt"`)
	assert.Contains(t, out, "Additional Context (High Priority Ticket Data):")

	_, err = run(t, "prompt", path, "--mode", "summarize")
	require.Error(t, err)
}
