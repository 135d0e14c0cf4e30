package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Bot modes: how inbound updates are delivered.
const (
	ModePolling = "polling"
	ModeWebhook = "webhook"
)

// Config is the root configuration for the bot.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Download DownloadConfig `yaml:"download"`
	History  HistoryConfig  `yaml:"history"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	LogLevel string         `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// TelegramConfig holds the bot token and delivery mode.
type TelegramConfig struct {
	Token     string   `yaml:"token" envconfig:"BOT_TOKEN"`
	Mode      string   `yaml:"mode" envconfig:"BOT_MODE"`
	AllowFrom []string `yaml:"allow_from" envconfig:"TELEGRAM_ALLOW_FROM"`
}

// WebhookConfig configures webhook-mode delivery. Only consulted when
// Telegram.Mode is "webhook".
type WebhookConfig struct {
	Host   string `yaml:"host" envconfig:"WEBHOOK_HOST"`
	Path   string `yaml:"path" envconfig:"WEBHOOK_PATH"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// DownloadConfig controls the extraction step.
type DownloadConfig struct {
	Dir         string        `yaml:"dir" envconfig:"DOWNLOADS_DIR"`
	Timeout     time.Duration `yaml:"timeout" envconfig:"DOWNLOAD_TIMEOUT"`
	Concurrency int           `yaml:"concurrency" envconfig:"DOWNLOAD_CONCURRENCY"`
}

// HistoryConfig controls the SQLite request log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"HISTORY_ENABLED"`
	DBPath  string `yaml:"db_path" envconfig:"HISTORY_DB_PATH"`
}

// MetricsConfig controls the standalone metrics listener. In webhook mode
// metrics are always served on the webhook router; this listener is for
// polling mode, where no HTTP server would otherwise exist.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"METRICS_ENABLED"`
	Port    int  `yaml:"port" envconfig:"METRICS_PORT"`
}

// Defaults returns the built-in configuration. File and environment values
// are layered on top of this.
func Defaults() *Config {
	return &Config{
		Telegram: TelegramConfig{Mode: ModePolling},
		Webhook: WebhookConfig{
			Path:   "/webhook/bot",
			Listen: "0.0.0.0",
			Port:   8081,
		},
		Download: DownloadConfig{
			Dir:         "downloads",
			Timeout:     10 * time.Minute,
			Concurrency: 3,
		},
		History: HistoryConfig{Enabled: true},
		Metrics: MetricsConfig{Port: 9091},
		LogLevel: "info",
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment variable overrides, then validates.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks required values and mode-specific constraints.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" || c.Telegram.Token == "your_bot_token_here" {
		return fmt.Errorf("BOT_TOKEN is required")
	}

	mode := strings.ToLower(c.Telegram.Mode)
	if mode != ModePolling && mode != ModeWebhook {
		return fmt.Errorf("BOT_MODE must be %q or %q, got %q", ModePolling, ModeWebhook, c.Telegram.Mode)
	}
	c.Telegram.Mode = mode

	if mode == ModeWebhook {
		if c.Webhook.Host == "" {
			return fmt.Errorf("WEBHOOK_HOST is required when BOT_MODE=webhook")
		}
		if c.Webhook.Port <= 0 || c.Webhook.Port > 65535 {
			return fmt.Errorf("WEBHOOK_PORT out of range: %d", c.Webhook.Port)
		}
	}

	if c.Download.Dir == "" {
		return fmt.Errorf("DOWNLOADS_DIR must not be empty")
	}
	if c.Download.Concurrency <= 0 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be positive, got %d", c.Download.Concurrency)
	}
	if c.Download.Timeout <= 0 {
		return fmt.Errorf("DOWNLOAD_TIMEOUT must be positive, got %s", c.Download.Timeout)
	}

	return nil
}

// WebhookURL joins the public host and path into the full URL registered
// with Telegram.
func (c *Config) WebhookURL() (string, error) {
	host := strings.TrimRight(c.Webhook.Host, "/")
	path := "/" + strings.TrimLeft(c.Webhook.Path, "/")
	full := host + path
	if _, err := url.ParseRequestURI(full); err != nil {
		return "", fmt.Errorf("invalid webhook URL %q: %w", full, err)
	}
	return full, nil
}

// WebhookAddr returns the local bind address for the webhook server.
func (c *Config) WebhookAddr() string {
	return fmt.Sprintf("%s:%d", c.Webhook.Listen, c.Webhook.Port)
}

// HistoryDBPath resolves the history database location, defaulting to a
// file next to the downloads directory.
func (c *Config) HistoryDBPath() string {
	if c.History.DBPath != "" {
		return c.History.DBPath
	}
	return filepath.Join(c.Download.Dir, "history.db")
}
