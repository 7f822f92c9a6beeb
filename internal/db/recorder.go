// Package db holds the productivity stores that record analysed tickets and
// user feedback and aggregate them into daily statistics.
package db

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gisdesk/ticket-agent/internal/models"
)

// MinutesSavedPerTicket is the time credited for each automated ticket.
const MinutesSavedPerTicket = 15

const ActionAnalyzed = "analyzed"

var ErrInvalidRating = errors.New("user rating must be between 1 and 5")

// Recorder is implemented by every productivity store.
type Recorder interface {
	RecordAction(ctx context.Context, a models.TicketAction) error
	RecordFeedback(ctx context.Context, f models.Feedback) error
	DailyStats(ctx context.Context, day time.Time) (models.DailyStats, error)
	Effectiveness(ctx context.Context) (models.Effectiveness, error)
	Ping(ctx context.Context) error
	Close() error
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func stampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func buildDailyStats(day time.Time, processed, automated int, categories map[string]int) models.DailyStats {
	if categories == nil {
		categories = map[string]int{}
	}
	rate := 0.0
	if processed > 0 {
		rate = round(float64(automated)/float64(processed)*100, 1)
	}
	start, _ := dayBounds(day)
	return models.DailyStats{
		Date:             start.Format("2006-01-02"),
		TicketsProcessed: processed,
		AutomatedCount:   automated,
		AutomationRate:   rate,
		TimeSavedMinutes: automated * MinutesSavedPerTicket,
		Categories:       categories,
	}
}

func buildEffectiveness(avg float64, total, positive int) models.Effectiveness {
	e := models.Effectiveness{AvgRating: round(avg, 2), TotalFeedback: total}
	if total > 0 {
		e.PositiveRate = round(float64(positive)/float64(total)*100, 1)
	}
	return e
}

func validateFeedback(f models.Feedback) error {
	if f.UserRating < 1 || f.UserRating > 5 {
		return ErrInvalidRating
	}
	return nil
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
