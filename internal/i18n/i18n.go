package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// Catalog holds localized strings for the bot interface. Built-in
// Russian and English catalogs are always available; per-locale JSON
// files in an optional overrides directory replace individual keys.
type Catalog struct {
	languages   map[string]map[string]string
	defaultLang string
	logger      *utils.Logger
	mu          sync.RWMutex
}

// builtin returns the compiled-in message catalogs.
func builtin() map[string]map[string]string {
	return map[string]map[string]string{
		"ru": {
			"start_msg":       "👋 Привет! Выберите устройство и отправьте ссылку на YouTube, TikTok или Instagram.",
			"platform_saved":  "✅ Платформа сохранена. Можете отправить ссылку на видео.",
			"limit_msg":       "⚠️ Ты достиг лимита на сегодня.",
			"choose_format":   "Выберите формат:",
			"invalid_url":     "Пожалуйста, отправьте корректную ссылку на видео.",
			"probe_auth":      "🔒 Это видео требует входа в TikTok. Пожалуйста, отправьте cookies файл или выберите другое видео.",
			"probe_error":     "❌ Ошибка: %s",
			"probe_timeout":   "⌛ Не удалось получить информацию о видео: превышено время ожидания.",
			"link_expired":    "⚠️ Ссылка устарела.",
			"downloading":     "⏳ Загрузка...",
			"too_large":       "🚫 Файл превышает лимит в %d MB.",
			"fetch_auth":      "🔐 Это видео требует авторизацию. Обновите cookies-файл и попробуйте снова.",
			"fetch_error":     "❌ Ошибка загрузки: %s",
			"fetch_timeout":   "⌛ Загрузка заняла слишком много времени и была остановлена.",
			"cookies_saved":   "✅ cookies-файл сохранён. Можете отправить видео.",
			"cookies_prompt":  "📁 Пожалуйста, отправьте файл cookies от TikTok.",
			"cookies_too_big": "🚫 Файл cookies слишком большой.",
			"lang_prompt":     "Выберите язык интерфейса:",
			"lang_saved":      "✅ Язык сохранён.",
			"help_msg": "Отправьте ссылку на видео — бот покажет название и длительность и предложит формат: 480p, 720p или mp3.\n\n" +
				"/start — выбор устройства\n/lang — язык интерфейса\n/help — эта справка\n/about — о боте\n\n" +
				"Лимит: %d загрузок в день, файлы до %d MB.",
			"about_msg": "Бот скачивает видео и аудио по ссылке через yt-dlp и ffmpeg.",
		},
		"en": {
			"start_msg":       "👋 Hello! Choose your device and send a link from YouTube, TikTok or Instagram.",
			"platform_saved":  "✅ Platform saved. You can send a video link now.",
			"limit_msg":       "⚠️ You've reached today's limit.",
			"choose_format":   "Choose format:",
			"invalid_url":     "Please send a valid video link.",
			"probe_auth":      "🔒 This video requires a TikTok login. Please send a cookies file or pick another video.",
			"probe_error":     "❌ Error: %s",
			"probe_timeout":   "⌛ Timed out while fetching video info.",
			"link_expired":    "⚠️ The link has expired.",
			"downloading":     "⏳ Downloading...",
			"too_large":       "🚫 The file exceeds the %d MB limit.",
			"fetch_auth":      "🔐 This video requires authorization. Refresh your cookies file and try again.",
			"fetch_error":     "❌ Download error: %s",
			"fetch_timeout":   "⌛ The download took too long and was stopped.",
			"cookies_saved":   "✅ Cookies file saved. You can send a video now.",
			"cookies_prompt":  "📁 Please send a TikTok cookies file.",
			"cookies_too_big": "🚫 The cookies file is too large.",
			"lang_prompt":     "Choose interface language:",
			"lang_saved":      "✅ Language saved.",
			"help_msg": "Send a video link — the bot shows its title and duration and offers a format: 480p, 720p or mp3.\n\n" +
				"/start — pick your device\n/lang — interface language\n/help — this message\n/about — about the bot\n\n" +
				"Limit: %d downloads per day, files up to %d MB.",
			"about_msg": "The bot downloads video and audio from a link via yt-dlp and ffmpeg.",
		},
	}
}

// NewCatalog creates a catalog with built-in strings and optional JSON
// overrides loaded from overridesPath (one <locale>.json per file).
func NewCatalog(defaultLang, overridesPath string, logger *utils.Logger) (*Catalog, error) {
	c := &Catalog{
		languages:   builtin(),
		defaultLang: defaultLang,
		logger:      logger,
	}

	if _, ok := c.languages[defaultLang]; !ok {
		return nil, fmt.Errorf("unsupported default locale %q", defaultLang)
	}

	if overridesPath != "" {
		if err := c.loadOverrides(overridesPath); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// loadOverrides merges per-locale JSON files on top of the built-in strings.
func (c *Catalog) loadOverrides(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read locales directory: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		langCode := strings.TrimSuffix(entry.Name(), ".json")
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Error("Failed to read locale file %s: %v", path, err)
			continue
		}

		var overrides map[string]string
		if err := json.Unmarshal(data, &overrides); err != nil {
			c.logger.Error("Failed to parse locale file %s: %v", path, err)
			continue
		}

		if _, ok := c.languages[langCode]; !ok {
			c.languages[langCode] = make(map[string]string)
		}
		for k, v := range overrides {
			c.languages[langCode][k] = v
		}
		c.logger.Info("Loaded %d locale overrides from %s", len(overrides), path)
	}

	return nil
}

// Get returns the localized string for key, falling back to the default
// locale and finally to the key itself.
func (c *Catalog) Get(langCode, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if msgs, ok := c.languages[langCode]; ok {
		if value, ok := msgs[key]; ok {
			return value
		}
	}
	if msgs, ok := c.languages[c.defaultLang]; ok {
		if value, ok := msgs[key]; ok {
			return value
		}
	}
	return key
}

// Getf returns the localized string formatted with args.
func (c *Catalog) Getf(langCode, key string, args ...interface{}) string {
	return fmt.Sprintf(c.Get(langCode, key), args...)
}

// Supported reports whether langCode has a built-in or loaded catalog.
func (c *Catalog) Supported(langCode string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.languages[langCode]
	return ok
}

// DefaultLanguage returns the default locale code.
func (c *Catalog) DefaultLanguage() string {
	return c.defaultLang
}
