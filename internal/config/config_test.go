package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Quota.DailyLimit != 5 {
		t.Errorf("DailyLimit = %d, want 5", cfg.Quota.DailyLimit)
	}
	if cfg.Download.MaxFileSize != 50*1024*1024 {
		t.Errorf("MaxFileSize = %d, want 50 MiB", cfg.Download.MaxFileSize)
	}
	if cfg.Download.ProbeTimeout != 30*time.Second {
		t.Errorf("ProbeTimeout = %v, want 30s", cfg.Download.ProbeTimeout)
	}
	if cfg.Download.FetchTimeout != 10*time.Minute {
		t.Errorf("FetchTimeout = %v, want 10m", cfg.Download.FetchTimeout)
	}
	if cfg.Locale.Default != "ru" {
		t.Errorf("default locale = %q, want ru", cfg.Locale.Default)
	}
	if cfg.Cookies.SiteMarker != "tiktok.com" {
		t.Errorf("cookie site marker = %q, want tiktok.com", cfg.Cookies.SiteMarker)
	}
	if cfg.WebhookMode() {
		t.Error("webhook mode should be off without WEBHOOK_URL")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("DAILY_LIMIT", "10")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")
	t.Setenv("LISTEN_ADDR", ":9000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Quota.DailyLimit != 10 {
		t.Errorf("DailyLimit = %d, want 10", cfg.Quota.DailyLimit)
	}
	if cfg.Download.MaxFileSize != 1048576 {
		t.Errorf("MaxFileSize = %d, want 1048576", cfg.Download.MaxFileSize)
	}
	if !cfg.WebhookMode() {
		t.Error("webhook mode should be on with WEBHOOK_URL set")
	}
	if cfg.Telegram.ListenAddr != ":9000" {
		t.Errorf("ListenAddr = %q, want :9000", cfg.Telegram.ListenAddr)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing token",
			env:  map[string]string{},
		},
		{
			name: "zero daily limit",
			env:  map[string]string{"BOT_TOKEN": "t", "DAILY_LIMIT": "0"},
		},
		{
			name: "negative file size",
			env:  map[string]string{"BOT_TOKEN": "t", "MAX_FILE_SIZE": "-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
