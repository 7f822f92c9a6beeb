// Package app assembles the analyzer and its backing services from config.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gisdesk/ticket-agent/internal/ai"
	"github.com/gisdesk/ticket-agent/internal/config"
	"github.com/gisdesk/ticket-agent/internal/db"
	"github.com/gisdesk/ticket-agent/internal/export"
	"github.com/gisdesk/ticket-agent/internal/service"
)

type App struct {
	Analyzer *service.Analyzer
	Recorder db.Recorder
	closers  []func() error
}

func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{}

	recorder, err := openRecorder(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Recorder = recorder
	a.closers = append(a.closers, recorder.Close)

	model := a.buildModel(ctx, cfg, logger)

	a.Analyzer = &service.Analyzer{
		Settings: cfg.Analysis(),
		Model:    model,
		Export:   export.FileSink{Dir: cfg.PromptsDir},
		Recorder: recorder,
		Logger:   logger,
	}
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func openRecorder(ctx context.Context, cfg config.Config, logger zerolog.Logger) (db.Recorder, error) {
	switch {
	case cfg.DatabaseURL != "":
		store, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Info().Msg("productivity store: postgres")
		return store, nil
	case cfg.SQLitePath != "":
		store, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("productivity store: sqlite")
		return store, nil
	default:
		logger.Info().Msg("productivity store: in-memory")
		return db.NewMemoryStore(), nil
	}
}

// buildModel returns nil when the model path is disabled or cannot be set
// up; the analyzer then falls back per its settings.
func (a *App) buildModel(ctx context.Context, cfg config.Config, logger zerolog.Logger) ai.Completer {
	if !cfg.AIEnabled {
		return nil
	}
	client, err := ai.NewOpenAICompleter(ai.OpenAIConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.AIMaxTokens,
		Temperature: cfg.AITemperature,
		Timeout:     cfg.AITimeout,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("model client unavailable, using rule-based analysis")
		return nil
	}

	var cache ai.Cache = ai.NewMemoryCache()
	if cfg.RedisURL != "" {
		rc, err := ai.NewRedisCache(cfg.RedisURL)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err = rc.Ping(pingCtx)
			cancel()
			if err != nil {
				_ = rc.Close()
			}
		}
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching replies in memory")
		} else {
			cache = rc
			a.closers = append(a.closers, rc.Close)
		}
	}

	logger.Info().Str("model", client.Model()).Msg("model client ready")
	cached := ai.NewCachedCompleter(client, cache, cfg.AICacheTTL, logger)
	return ai.NewBreakerCompleter(cached, logger)
}
