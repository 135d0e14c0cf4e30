package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc", Mode: ModePolling},
		Webhook:  WebhookConfig{Path: "/webhook/bot", Listen: "0.0.0.0", Port: 8081},
		Download: DownloadConfig{Dir: "downloads", Timeout: 10 * time.Minute, Concurrency: 3},
	}
}

// --- Validate ---

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_MissingToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestValidate_PlaceholderToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "your_bot_token_here"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for placeholder token")
	}
}

func TestValidate_BadMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Mode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestValidate_ModeNormalized(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Mode = "Polling"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("mixed-case mode should validate: %v", err)
	}
	if cfg.Telegram.Mode != ModePolling {
		t.Fatalf("mode not normalized: %q", cfg.Telegram.Mode)
	}
}

func TestValidate_WebhookRequiresHost(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Mode = ModeWebhook
	cfg.Webhook.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error: webhook mode without host")
	}
}

func TestValidate_WebhookWithHost(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Mode = ModeWebhook
	cfg.Webhook.Host = "https://bot.example.com"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid webhook config, got: %v", err)
	}
}

func TestValidate_ZeroConcurrency(t *testing.T) {
	cfg := validConfig()
	cfg.Download.Concurrency = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}

// --- WebhookURL ---

func TestWebhookURL_JoinsHostAndPath(t *testing.T) {
	cfg := validConfig()
	cfg.Webhook.Host = "https://bot.example.com/"
	cfg.Webhook.Path = "webhook/bot"

	u, err := cfg.WebhookURL()
	if err != nil {
		t.Fatal(err)
	}
	if u != "https://bot.example.com/webhook/bot" {
		t.Fatalf("unexpected URL: %s", u)
	}
}

// --- Load ---

func TestLoad_FileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("telegram:\n  token: file-token\ndownload:\n  dir: fromfile\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BOT_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("env should override file, got %q", cfg.Telegram.Token)
	}
	if cfg.Download.Dir != "fromfile" {
		t.Fatalf("file value lost: %q", cfg.Download.Dir)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Mode != ModePolling {
		t.Fatalf("default mode should be polling, got %q", cfg.Telegram.Mode)
	}
	if cfg.Webhook.Path != "/webhook/bot" {
		t.Fatalf("default webhook path wrong: %q", cfg.Webhook.Path)
	}
	if cfg.Webhook.Port != 8081 {
		t.Fatalf("default webhook port wrong: %d", cfg.Webhook.Port)
	}
	if cfg.Download.Timeout != 10*time.Minute {
		t.Fatalf("default timeout wrong: %s", cfg.Download.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// --- HistoryDBPath ---

func TestHistoryDBPath_Default(t *testing.T) {
	cfg := validConfig()
	got := cfg.HistoryDBPath()
	want := filepath.Join("downloads", "history.db")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestHistoryDBPath_Explicit(t *testing.T) {
	cfg := validConfig()
	cfg.History.DBPath = "/var/lib/bot/history.db"
	if got := cfg.HistoryDBPath(); got != "/var/lib/bot/history.db" {
		t.Fatalf("unexpected path: %s", got)
	}
}
