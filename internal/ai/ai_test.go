package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gisdesk/ticket-agent/internal/models"
)

const plainReply = `{"category":"web_mapping","priority":"high","confidence":0.92,
"suggested_response":"Check the sharing settings.","action_plan":["Review item", " "],
"estimated_resolution_time":"4 hours","required_skills":["Portal administration"]}`

func TestParseSuggestionFencedMatchesPlain(t *testing.T) {
	plain, err := ParseSuggestion(plainReply)
	require.NoError(t, err)

	for _, fenced := range []string{
		"```json\n" + plainReply + "\n```",
		"```\n" + plainReply + "\n```",
		"  ```json" + plainReply + "```  ",
	} {
		got, err := ParseSuggestion(fenced)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}

	assert.Equal(t, models.CategoryWebMapping, plain.Category)
	assert.Equal(t, models.PriorityHigh, plain.Priority)
	assert.Equal(t, []string{"Review item"}, plain.ActionPlan)
}

func TestParseSuggestionRejectsUnusableReplies(t *testing.T) {
	for _, reply := range []string{
		"",
		"I think this is a web mapping problem.",
		`{"category":"cartography","priority":"high"}`,
		`{"category":"mobile","priority":"p1"}`,
		"```json\n```",
	} {
		_, err := ParseSuggestion(reply)
		assert.ErrorIs(t, err, ErrUnparseable, reply)
	}
}

func TestParseSuggestionConfidence(t *testing.T) {
	s, err := ParseSuggestion(`{"category":"Mobile","priority":"LOW"}`)
	require.NoError(t, err)
	assert.Equal(t, DefaultModelConfidence, s.Confidence)
	assert.Equal(t, models.CategoryMobile, s.Category)

	s, err = ParseSuggestion(`{"category":"mobile","priority":"low","confidence":3}`)
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Confidence)
}

func TestUserPromptModes(t *testing.T) {
	tk := models.Ticket{ID: "7", Subject: "Portal down"}
	full := UserPrompt(tk, ModeFull, "[CRITICAL] Critical fields\n- Priority (weight 10): High")
	assert.Contains(t, full, "Ticket ID: 7")
	assert.Contains(t, full, "Description: No description")
	assert.Contains(t, full, "Additional Context (High Priority Ticket Data):\n[CRITICAL]")
	assert.Contains(t, full, `"action_plan"`)

	cat := UserPrompt(tk, ModeCategorize, "")
	assert.Contains(t, cat, "respond with ONLY a JSON object")
	assert.NotContains(t, cat, "Additional Context")
	assert.NotContains(t, cat, `"action_plan"`)

	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeFull, m)
	_, ok = ParseMode("summary")
	assert.False(t, ok)
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheSetSweepsExpiredEntries(t *testing.T) {
	c := NewMemoryCache()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "b", "2", time.Hour))
	assert.Equal(t, 2, c.Len())

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	require.NoError(t, c.Set(ctx, "c", "3", time.Minute))
	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.Get(ctx, "b")
	assert.True(t, ok)
}

func TestCachedCompleterServesRepeats(t *testing.T) {
	second := `{"category":"geocoding","priority":"low","confidence":0.7}`
	backend := &ScriptedCompleter{Replies: []string{plainReply, second}}
	c := NewCachedCompleter(backend, NewMemoryCache(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	a, err := c.Complete(ctx, "sys", "user")
	require.NoError(t, err)
	b, err := c.Complete(ctx, "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, plainReply, a)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, backend.Calls)

	other, err := c.Complete(ctx, "sys", "other")
	require.NoError(t, err)
	assert.Equal(t, second, other)
	assert.NotEqual(t, PromptKey("sys", "user"), PromptKey("sys", "other"))
}

func TestCachedCompleterSkipsUnparseableReplies(t *testing.T) {
	backend := &ScriptedCompleter{Replies: []string{"Sorry, I cannot help with that.", plainReply}}
	cache := NewMemoryCache()
	c := NewCachedCompleter(backend, cache, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := c.Complete(ctx, "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I cannot help with that.", first)
	assert.Equal(t, 0, cache.Len())

	second, err := c.Complete(ctx, "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, plainReply, second)
	assert.Equal(t, 2, backend.Calls)

	third, err := c.Complete(ctx, "sys", "user")
	require.NoError(t, err)
	assert.Equal(t, plainReply, third)
	assert.Equal(t, 2, backend.Calls)
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	backend := &ScriptedCompleter{Err: errors.New("connection refused")}
	b := NewBreakerCompleter(backend, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.Complete(ctx, "s", "u")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnavailable)
	}
	_, err := b.Complete(ctx, "s", "u")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 5, backend.Calls)
	assert.Equal(t, "open", b.State())
}

func TestOpenAICompleter(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" {\"category\":\"mobile\"} "}}]}`))
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(OpenAIConfig{BaseURL: srv.URL + "/v1", Model: "test-model", Temperature: 0.1})
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, `{"category":"mobile"}`, out)
	assert.Equal(t, "test-model", got["model"])
	assert.EqualValues(t, DefaultMaxTokens, got["max_tokens"])
	assert.InDelta(t, 0.1, got["temperature"], 1e-6)
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenAICompleterRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	c, err := NewOpenAICompleter(OpenAIConfig{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "s", "u")
	var rl RateLimitError
	assert.True(t, errors.As(err, &rl), err)
}

func TestNewOpenAICompleterNeedsCredentials(t *testing.T) {
	_, err := NewOpenAICompleter(OpenAIConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = NewOpenAICompleter(OpenAIConfig{APIKey: "k"})
	assert.ErrorIs(t, err, ErrMissingModel)
}
