// Package ai wraps the optional generative-model backend: prompt building,
// the chat completion client and its protective layers, and parsing of the
// model's JSON suggestion.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Completer sends one system/user prompt pair and returns the raw reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var (
	ErrUnavailable  = errors.New("model backend unavailable")
	ErrUnparseable  = errors.New("model reply is not a usable JSON suggestion")
	ErrEmptyReply   = errors.New("empty model reply")
	ErrMissingModel = errors.New("OPENAI_MODEL is not set")
)

type RateLimitError struct {
	RetryAfter time.Duration
}

func (r RateLimitError) Error() string {
	if r.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", r.RetryAfter)
	}
	return "rate limited"
}

// CompleterFunc adapts a plain function to Completer.
type CompleterFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f(ctx, systemPrompt, userPrompt)
}
