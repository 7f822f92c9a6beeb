package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// sqliteTime is fixed width so text comparison orders chronologically.
const sqliteTime = "2006-01-02 15:04:05.000000"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS ticket_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL,
		action_type TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		automation_used INTEGER NOT NULL DEFAULT 0,
		category TEXT,
		priority TEXT,
		outcome TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ticket_actions_occurred_at_idx ON ticket_actions (occurred_at)`,
	`CREATE TABLE IF NOT EXISTS automation_feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticket_id TEXT NOT NULL,
		ai_suggestion TEXT,
		user_rating INTEGER NOT NULL,
		user_feedback TEXT,
		created_at TEXT NOT NULL
	)`,
}

// SQLiteStore keeps productivity data in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) RecordAction(ctx context.Context, a models.TicketAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ticket_actions (ticket_id, action_type, occurred_at, automation_used, category, priority, outcome)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.TicketID, a.ActionType, stampOrNow(a.Timestamp).Format(sqliteTime), a.AutomationUsed, a.Category, a.Priority, a.Outcome)
	return err
}

func (s *SQLiteStore) RecordFeedback(ctx context.Context, f models.Feedback) error {
	if err := validateFeedback(f); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO automation_feedback (ticket_id, ai_suggestion, user_rating, user_feedback, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.TicketID, f.AISuggestion, f.UserRating, f.UserFeedback, stampOrNow(f.Timestamp).Format(sqliteTime))
	return err
}

type dailyRow struct {
	Processed int           `db:"processed"`
	Automated sql.NullInt64 `db:"automated"`
}

type categoryRow struct {
	Category string `db:"category"`
	Count    int    `db:"n"`
}

func (s *SQLiteStore) DailyStats(ctx context.Context, day time.Time) (models.DailyStats, error) {
	from, to := dayBounds(day)
	args := []any{from.Format(sqliteTime), to.Format(sqliteTime)}

	var row dailyRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS processed, SUM(CASE WHEN automation_used = 1 THEN 1 ELSE 0 END) AS automated
		FROM ticket_actions WHERE occurred_at >= ? AND occurred_at < ?`, args...); err != nil {
		return models.DailyStats{}, err
	}

	var cats []categoryRow
	if err := s.db.SelectContext(ctx, &cats, `
		SELECT category, COUNT(*) AS n FROM ticket_actions
		WHERE occurred_at >= ? AND occurred_at < ? AND category IS NOT NULL AND category <> ''
		GROUP BY category`, args...); err != nil {
		return models.DailyStats{}, err
	}
	categories := make(map[string]int, len(cats))
	for _, c := range cats {
		categories[c.Category] = c.Count
	}
	return buildDailyStats(day, row.Processed, int(row.Automated.Int64), categories), nil
}

type effectivenessRow struct {
	Avg      sql.NullFloat64 `db:"avg_rating"`
	Total    int             `db:"total"`
	Positive sql.NullInt64   `db:"positive"`
}

func (s *SQLiteStore) Effectiveness(ctx context.Context) (models.Effectiveness, error) {
	var row effectivenessRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT AVG(user_rating) AS avg_rating, COUNT(*) AS total,
			SUM(CASE WHEN user_rating >= 4 THEN 1 ELSE 0 END) AS positive
		FROM automation_feedback`); err != nil {
		return models.Effectiveness{}, err
	}
	return buildEffectiveness(row.Avg.Float64, row.Total, int(row.Positive.Int64)), nil
}
