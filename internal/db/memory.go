package db

import (
	"context"
	"sync"
	"time"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// MemoryStore is the default store when no database is configured. Data is
// lost on restart.
type MemoryStore struct {
	mu       sync.Mutex
	actions  []models.TicketAction
	feedback []models.Feedback
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) RecordAction(_ context.Context, a models.TicketAction) error {
	a.Timestamp = stampOrNow(a.Timestamp)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, a)
	return nil
}

func (m *MemoryStore) RecordFeedback(_ context.Context, f models.Feedback) error {
	if err := validateFeedback(f); err != nil {
		return err
	}
	f.Timestamp = stampOrNow(f.Timestamp)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append(m.feedback, f)
	return nil
}

func (m *MemoryStore) DailyStats(_ context.Context, day time.Time) (models.DailyStats, error) {
	from, to := dayBounds(day)
	m.mu.Lock()
	defer m.mu.Unlock()

	processed, automated := 0, 0
	categories := map[string]int{}
	for _, a := range m.actions {
		if a.Timestamp.Before(from) || !a.Timestamp.Before(to) {
			continue
		}
		processed++
		if a.AutomationUsed {
			automated++
		}
		if a.Category != "" {
			categories[a.Category]++
		}
	}
	return buildDailyStats(day, processed, automated, categories), nil
}

func (m *MemoryStore) Effectiveness(_ context.Context) (models.Effectiveness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum, positive := 0, 0
	for _, f := range m.feedback {
		sum += f.UserRating
		if f.UserRating >= 4 {
			positive++
		}
	}
	avg := 0.0
	if len(m.feedback) > 0 {
		avg = float64(sum) / float64(len(m.feedback))
	}
	return buildEffectiveness(avg, len(m.feedback), positive), nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// Actions returns a copy of every recorded action.
func (m *MemoryStore) Actions() []models.TicketAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TicketAction(nil), m.actions...)
}
