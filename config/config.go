package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
)

type Config struct {
	Env      string `yaml:"env" env:"APP_ENV" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`

	DBPath      string `yaml:"db_path" env:"DB_PATH" env-default:"listings.db"`
	MetricsPort string `yaml:"metrics_port" env:"METRICS_PORT" env-default:"9090"`

	// CheckInterval is the sleep between full cycles; ErrorBackoff is the
	// base backoff after a cycle-level failure, capped at ErrorBackoffMax.
	CheckInterval   time.Duration `yaml:"check_interval" env-default:"5m"`
	ErrorBackoff    time.Duration `yaml:"error_backoff" env-default:"30s"`
	ErrorBackoffMax time.Duration `yaml:"error_backoff_max" env-default:"2m"`
	KeywordPause    time.Duration `yaml:"keyword_pause" env-default:"2s"`

	ScrapeTimeout   time.Duration `yaml:"scrape_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	DrainTimeout    time.Duration `yaml:"drain_timeout" env-default:"15s"`

	Headless bool   `yaml:"headless" env-default:"true"`
	ProxyURL string `yaml:"proxy_url" env:"PROXY_URL"`

	// FuzzyThreshold is the similarity score above which a listing with a
	// new article id is treated as a repost.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" env-default:"0.85"`

	NotificationsEnabled bool             `yaml:"notifications_enabled" env-default:"false"`
	Schedule             models.Schedule  `yaml:"notification_schedule"`
	Notifiers            []NotifierConfig `yaml:"notifiers"`

	Keywords []models.SearchKeyword `yaml:"keywords"`
}

// NotifierConfig holds one channel's credentials.
type NotifierConfig struct {
	Type       enums.Channel `yaml:"type"`
	Enabled    bool          `yaml:"enabled"`
	Token      string        `yaml:"token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID     string        `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
	WebhookURL string        `yaml:"webhook_url"`
}

// MustLoad reads the YAML config with env overrides and exits on failure.
func MustLoad() *Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}

	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Error("config file does not exist", "path", path)
		os.Exit(1)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		slog.Error("cannot read config", "path", path, "error", err)
		os.Exit(1)
	}

	return &cfg
}

// SlogLevel parses the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		slog.Error("invalid log level, using INFO", "value", c.LogLevel)
		return slog.LevelInfo
	}
	return level
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}
