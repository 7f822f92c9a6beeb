package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gisdesk/ticket-agent/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ticket_actions (
	id BIGSERIAL PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	action_type TEXT NOT NULL,
	occurred_at TIMESTAMPTZ NOT NULL,
	automation_used BOOLEAN NOT NULL DEFAULT FALSE,
	category TEXT,
	priority TEXT,
	outcome TEXT
);
CREATE INDEX IF NOT EXISTS ticket_actions_occurred_at_idx ON ticket_actions (occurred_at);
CREATE TABLE IF NOT EXISTS automation_feedback (
	id BIGSERIAL PRIMARY KEY,
	ticket_id TEXT NOT NULL,
	ai_suggestion TEXT,
	user_rating INTEGER NOT NULL,
	user_feedback TEXT,
	created_at TIMESTAMPTZ NOT NULL
);`

// Store is the Postgres productivity store.
type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{Pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate productivity schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) RecordAction(ctx context.Context, a models.TicketAction) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO ticket_actions (ticket_id, action_type, occurred_at, automation_used, category, priority, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.TicketID, a.ActionType, stampOrNow(a.Timestamp), a.AutomationUsed, a.Category, a.Priority, a.Outcome)
	return err
}

func (s *Store) RecordFeedback(ctx context.Context, f models.Feedback) error {
	if err := validateFeedback(f); err != nil {
		return err
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO automation_feedback (ticket_id, ai_suggestion, user_rating, user_feedback, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		f.TicketID, f.AISuggestion, f.UserRating, f.UserFeedback, stampOrNow(f.Timestamp))
	return err
}

func (s *Store) DailyStats(ctx context.Context, day time.Time) (models.DailyStats, error) {
	from, to := dayBounds(day)

	var processed, automated int64
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN automation_used THEN 1 ELSE 0 END), 0)
		FROM ticket_actions WHERE occurred_at >= $1 AND occurred_at < $2`, from, to).Scan(&processed, &automated)
	if err != nil {
		return models.DailyStats{}, err
	}

	rows, err := s.Pool.Query(ctx, `
		SELECT category, COUNT(*) FROM ticket_actions
		WHERE occurred_at >= $1 AND occurred_at < $2 AND category IS NOT NULL AND category <> ''
		GROUP BY category`, from, to)
	if err != nil {
		return models.DailyStats{}, err
	}
	defer rows.Close()

	categories := map[string]int{}
	for rows.Next() {
		var (
			cat string
			n   int64
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return models.DailyStats{}, err
		}
		categories[cat] = int(n)
	}
	if err := rows.Err(); err != nil {
		return models.DailyStats{}, err
	}
	return buildDailyStats(day, int(processed), int(automated), categories), nil
}

func (s *Store) Effectiveness(ctx context.Context) (models.Effectiveness, error) {
	var (
		avg             float64
		total, positive int64
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(user_rating)::float8, 0), COUNT(*),
			COALESCE(SUM(CASE WHEN user_rating >= 4 THEN 1 ELSE 0 END), 0)
		FROM automation_feedback`).Scan(&avg, &total, &positive)
	if err != nil {
		return models.Effectiveness{}, err
	}
	return buildEffectiveness(avg, int(total), int(positive)), nil
}
