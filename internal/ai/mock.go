package ai

import (
	"context"
	"sync"
)

// ScriptedCompleter replays canned replies in order, repeating the last one.
// It records every prompt it receives.
type ScriptedCompleter struct {
	mu      sync.Mutex
	Replies []string
	Err     error
	Calls   int
	Users   []string
}

func (s *ScriptedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.Users = append(s.Users, userPrompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.Replies) == 0 {
		return "", ErrEmptyReply
	}
	i := s.Calls - 1
	if i >= len(s.Replies) {
		i = len(s.Replies) - 1
	}
	return s.Replies[i], nil
}
