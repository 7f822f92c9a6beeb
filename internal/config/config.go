package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gisdesk/ticket-agent/internal/service"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	AIEnabled       bool   `mapstructure:"AI_ENABLED"`
	FallbackToRules bool   `mapstructure:"FALLBACK_TO_RULES"`
	ExportPrompts   bool   `mapstructure:"EXPORT_PROMPTS"`
	PromptsDir      string `mapstructure:"PROMPTS_DIR"`

	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string        `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string        `mapstructure:"OPENAI_BASE_URL"`
	AIMaxTokens   int           `mapstructure:"AI_MAX_TOKENS"`
	AITemperature float64       `mapstructure:"AI_TEMPERATURE"`
	AITimeout     time.Duration `mapstructure:"AI_TIMEOUT"`
	AICacheTTL    time.Duration `mapstructure:"AI_CACHE_TTL"`
	RedisURL      string        `mapstructure:"REDIS_URL"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	BulkWorkers int    `mapstructure:"BULK_WORKERS"`
}

// Load reads .env (optional) and the environment. path overrides the .env
// location when non-empty.
func Load(path ...string) (Config, error) {
	v := viper.New()
	file := ".env"
	if len(path) > 0 && strings.TrimSpace(path[0]) != "" {
		file = path[0]
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)

	v.SetDefault("AI_ENABLED", false)
	v.SetDefault("FALLBACK_TO_RULES", true)
	v.SetDefault("EXPORT_PROMPTS", true)
	v.SetDefault("PROMPTS_DIR", "prompts_export")

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("AI_MAX_TOKENS", 1500)
	v.SetDefault("AI_TEMPERATURE", 0.1)
	v.SetDefault("AI_TIMEOUT", "45s")
	v.SetDefault("AI_CACHE_TTL", "60s")
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "")
	v.SetDefault("BULK_WORKERS", 4)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Analysis is the orchestrator's view of the configuration.
func (c Config) Analysis() service.Settings {
	return service.Settings{
		AIEnabled:       c.AIEnabled,
		FallbackToRules: c.FallbackToRules,
		ExportPrompts:   c.ExportPrompts,
		ModelID:         c.OpenAIModel,
	}
}

func (c Config) MaxUploadBytes() int64 {
	if c.MaxUploadSizeMB <= 0 {
		return 20 << 20
	}
	return c.MaxUploadSizeMB << 20
}
