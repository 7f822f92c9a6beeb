package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.AIEnabled)
	assert.True(t, cfg.FallbackToRules)
	assert.True(t, cfg.ExportPrompts)
	assert.Equal(t, "prompts_export", cfg.PromptsDir)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	assert.Equal(t, 1500, cfg.AIMaxTokens)
	assert.InDelta(t, 0.1, cfg.AITemperature, 1e-9)
	assert.Equal(t, 45*time.Second, cfg.AITimeout)
	assert.Equal(t, 4, cfg.BulkWorkers)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
}

func TestLoadFromEnvAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PROMPTS_DIR=/tmp/prompts\nAI_ENABLED=true\n"), 0o644))
	t.Setenv("FALLBACK_TO_RULES", "false")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/prompts", cfg.PromptsDir)

	s := cfg.Analysis()
	assert.True(t, s.AIEnabled)
	assert.False(t, s.FallbackToRules)
	assert.True(t, s.ExportPrompts)
	assert.Equal(t, "gpt-4o", s.ModelID)
}
