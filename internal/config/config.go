package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the bot
type Config struct {
	Telegram TelegramConfig
	Download DownloadConfig
	Quota    QuotaConfig
	Cookies  CookiesConfig
	Redis    RedisConfig
	MongoDB  MongoDBConfig
	Log      LogConfig
	Locale   LocaleConfig
}

// TelegramConfig holds bot transport settings
type TelegramConfig struct {
	Token       string
	WebhookURL  string // public URL; empty means long polling
	ListenAddr  string // webhook listen address
	PollTimeout time.Duration
}

// DownloadConfig holds extraction and transcoding settings
type DownloadConfig struct {
	YTDLPPath    string
	FFmpegPath   string
	TempDir      string
	MaxFileSize  int64 // bytes
	ProbeTimeout time.Duration
	FetchTimeout time.Duration
}

// QuotaConfig holds the per-user daily download quota
type QuotaConfig struct {
	DailyLimit int
	PendingTTL time.Duration
}

// CookiesConfig holds cookie-file handling settings
type CookiesConfig struct {
	Path          string
	SiteMarker    string // filename marker recognized on upload
	MaxUploadSize int64  // bytes
}

// RedisConfig holds the optional Redis session-store backend
type RedisConfig struct {
	URI string // empty disables Redis, memory store is used
}

// MongoDBConfig holds the optional download-history store
type MongoDBConfig struct {
	URI      string // empty disables history persistence
	Database string
}

// LogConfig holds logging settings
type LogConfig struct {
	Enabled    bool
	Path       string
	Level      string
	JSONFormat bool
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// LocaleConfig holds interface language settings
type LocaleConfig struct {
	Default string
	Path    string // optional directory with per-locale JSON overrides
}

// LoadConfig reads configuration from the environment with defaults
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("WEBHOOK_URL", "")
	v.SetDefault("LISTEN_ADDR", ":8443")
	v.SetDefault("POLL_TIMEOUT", "10s")

	v.SetDefault("YTDLP_PATH", "yt-dlp")
	v.SetDefault("FFMPEG_PATH", "/usr/bin/ffmpeg")
	v.SetDefault("TEMP_DIR", "downloads")
	v.SetDefault("MAX_FILE_SIZE", int64(50*1024*1024))
	v.SetDefault("PROBE_TIMEOUT", "30s")
	v.SetDefault("FETCH_TIMEOUT", "10m")

	v.SetDefault("DAILY_LIMIT", 5)
	v.SetDefault("PENDING_TTL", "1h")

	v.SetDefault("COOKIES_PATH", "cookies.txt")
	v.SetDefault("COOKIES_SITE_MARKER", "tiktok.com")
	v.SetDefault("COOKIES_MAX_UPLOAD_SIZE", int64(1024*1024))

	v.SetDefault("REDIS_URI", "")
	v.SetDefault("MONGODB_URI", "")
	v.SetDefault("MONGODB_DATABASE", "clipbot")

	v.SetDefault("LOG_ENABLED", true)
	v.SetDefault("LOG_PATH", "logs/bot.log")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_JSON", false)
	v.SetDefault("LOG_MAX_SIZE", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE", 30)

	v.SetDefault("DEFAULT_LOCALE", "ru")
	v.SetDefault("LOCALES_PATH", "")

	cfg := &Config{
		Telegram: TelegramConfig{
			Token:       v.GetString("BOT_TOKEN"),
			WebhookURL:  v.GetString("WEBHOOK_URL"),
			ListenAddr:  v.GetString("LISTEN_ADDR"),
			PollTimeout: v.GetDuration("POLL_TIMEOUT"),
		},
		Download: DownloadConfig{
			YTDLPPath:    v.GetString("YTDLP_PATH"),
			FFmpegPath:   v.GetString("FFMPEG_PATH"),
			TempDir:      v.GetString("TEMP_DIR"),
			MaxFileSize:  v.GetInt64("MAX_FILE_SIZE"),
			ProbeTimeout: v.GetDuration("PROBE_TIMEOUT"),
			FetchTimeout: v.GetDuration("FETCH_TIMEOUT"),
		},
		Quota: QuotaConfig{
			DailyLimit: v.GetInt("DAILY_LIMIT"),
			PendingTTL: v.GetDuration("PENDING_TTL"),
		},
		Cookies: CookiesConfig{
			Path:          v.GetString("COOKIES_PATH"),
			SiteMarker:    v.GetString("COOKIES_SITE_MARKER"),
			MaxUploadSize: v.GetInt64("COOKIES_MAX_UPLOAD_SIZE"),
		},
		Redis: RedisConfig{
			URI: v.GetString("REDIS_URI"),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
		},
		Log: LogConfig{
			Enabled:    v.GetBool("LOG_ENABLED"),
			Path:       v.GetString("LOG_PATH"),
			Level:      v.GetString("LOG_LEVEL"),
			JSONFormat: v.GetBool("LOG_JSON"),
			MaxSize:    v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     v.GetInt("LOG_MAX_AGE"),
		},
		Locale: LocaleConfig{
			Default: v.GetString("DEFAULT_LOCALE"),
			Path:    v.GetString("LOCALES_PATH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.Quota.DailyLimit <= 0 {
		return fmt.Errorf("DAILY_LIMIT must be positive, got %d", c.Quota.DailyLimit)
	}
	if c.Download.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Download.MaxFileSize)
	}
	if c.Download.ProbeTimeout <= 0 || c.Download.FetchTimeout <= 0 {
		return fmt.Errorf("probe and fetch timeouts must be positive")
	}
	return nil
}

// WebhookMode reports whether the bot should receive updates over HTTP
// instead of long polling.
func (c *Config) WebhookMode() bool {
	return c.Telegram.WebhookURL != ""
}
