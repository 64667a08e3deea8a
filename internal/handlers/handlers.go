package handlers

import (
	"context"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/dkorchagin/telegram-clip-bot/internal/config"
	"github.com/dkorchagin/telegram-clip-bot/internal/database"
	"github.com/dkorchagin/telegram-clip-bot/internal/extractor"
	"github.com/dkorchagin/telegram-clip-bot/internal/i18n"
	"github.com/dkorchagin/telegram-clip-bot/internal/session"
	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// BotHandler handles Telegram bot interactions
type BotHandler struct {
	bot       *telebot.Bot
	store     session.Store
	extractor extractor.Extractor
	history   *database.HistoryRepository
	catalog   *i18n.Catalog
	config    *config.Config
	logger    *utils.Logger
}

// NewBotHandler creates a new bot handler
func NewBotHandler(
	bot *telebot.Bot,
	store session.Store,
	ext extractor.Extractor,
	history *database.HistoryRepository,
	catalog *i18n.Catalog,
	cfg *config.Config,
	logger *utils.Logger,
) *BotHandler {
	return &BotHandler{
		bot:       bot,
		store:     store,
		extractor: ext,
		history:   history,
		catalog:   catalog,
		config:    cfg,
		logger:    logger,
	}
}

// RegisterHandlers registers all bot command handlers
func (h *BotHandler) RegisterHandlers() {
	h.bot.Handle("/start", h.handleStart)
	h.bot.Handle("/help", h.handleHelp)
	h.bot.Handle("/about", h.handleAbout)
	h.bot.Handle("/lang", h.handleLanguage)

	// Platform selection buttons
	h.bot.Handle(&telebot.InlineButton{Unique: "platform_ios"}, h.handlePlatformSelection)
	h.bot.Handle(&telebot.InlineButton{Unique: "platform_android"}, h.handlePlatformSelection)
	h.bot.Handle(&telebot.InlineButton{Unique: "platform_pc"}, h.handlePlatformSelection)

	// Language selection buttons
	h.bot.Handle(&telebot.InlineButton{Unique: "lang_ru"}, h.handleLanguageSelection)
	h.bot.Handle(&telebot.InlineButton{Unique: "lang_en"}, h.handleLanguageSelection)

	// Format selection buttons
	h.bot.Handle(&telebot.InlineButton{Unique: "dl_video480"}, h.handleFormatSelection)
	h.bot.Handle(&telebot.InlineButton{Unique: "dl_video720"}, h.handleFormatSelection)
	h.bot.Handle(&telebot.InlineButton{Unique: "dl_audio"}, h.handleFormatSelection)

	// Free text carries video links, documents carry cookie files
	h.bot.Handle(telebot.OnText, h.handleText)
	h.bot.Handle(telebot.OnDocument, h.handleDocument)
}

// locale returns the sender's interface locale.
func (h *BotHandler) locale(ctx context.Context, userID int64) string {
	return h.store.Locale(ctx, userID)
}

// handleStart handles the /start command: it picks the locale from the
// Telegram client language and shows the device keyboard.
func (h *BotHandler) handleStart(c telebot.Context) error {
	userID := c.Sender().ID
	h.logger.Info("Received /start from user %d", userID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := c.Sender().LanguageCode
	if !h.catalog.Supported(lang) {
		lang = h.catalog.DefaultLanguage()
	}
	if err := h.store.SetLocale(ctx, userID, lang); err != nil {
		h.logger.Error("Failed to store locale for user %d: %v", userID, err)
	}

	keyboard := [][]telebot.InlineButton{
		{{Text: "📱 iPhone", Unique: "platform_ios"}},
		{{Text: "🤖 Android", Unique: "platform_android"}},
		{{Text: "💻 ПК", Unique: "platform_pc"}},
	}

	return c.Send(h.catalog.Get(lang, "start_msg"), &telebot.ReplyMarkup{
		InlineKeyboard: keyboard,
	})
}

// handlePlatformSelection records the chosen device.
func (h *BotHandler) handlePlatformSelection(c telebot.Context) error {
	userID := c.Sender().ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	unique := c.Callback().Unique
	platform, ok := session.ParsePlatform(strings.TrimPrefix(unique, "platform_"))
	if !ok {
		return c.Respond()
	}

	if err := h.store.SetPlatform(ctx, userID, platform); err != nil {
		h.logger.Error("Failed to store platform for user %d: %v", userID, err)
	}
	h.logger.Info("User %d selected platform %s", userID, platform)

	if err := c.Respond(); err != nil {
		h.logger.Error("Failed to answer platform callback: %v", err)
	}
	return c.Send(h.catalog.Get(h.locale(ctx, userID), "platform_saved"))
}

// handleHelp handles the /help command
func (h *BotHandler) handleHelp(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := h.locale(ctx, c.Sender().ID)
	limitMB := h.config.Download.MaxFileSize / (1024 * 1024)
	return c.Send(h.catalog.Getf(lang, "help_msg", h.config.Quota.DailyLimit, limitMB))
}

// handleAbout handles the /about command
func (h *BotHandler) handleAbout(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := h.locale(ctx, c.Sender().ID)
	return c.Send(h.catalog.Get(lang, "about_msg"))
}

// handleLanguage handles the /lang command
func (h *BotHandler) handleLanguage(c telebot.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := h.locale(ctx, c.Sender().ID)

	keyboard := [][]telebot.InlineButton{
		{
			{Text: "Русский 🇷🇺", Unique: "lang_ru"},
			{Text: "English 🇬🇧", Unique: "lang_en"},
		},
	}

	return c.Send(h.catalog.Get(lang, "lang_prompt"), &telebot.ReplyMarkup{
		InlineKeyboard: keyboard,
	})
}

// handleLanguageSelection records the chosen interface language.
func (h *BotHandler) handleLanguageSelection(c telebot.Context) error {
	userID := c.Sender().ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := strings.TrimPrefix(c.Callback().Unique, "lang_")
	if !h.catalog.Supported(lang) {
		return c.Respond()
	}

	if err := h.store.SetLocale(ctx, userID, lang); err != nil {
		h.logger.Error("Failed to store locale for user %d: %v", userID, err)
	}

	if err := c.Respond(); err != nil {
		h.logger.Error("Failed to answer language callback: %v", err)
	}
	return c.Edit(h.catalog.Get(lang, "lang_saved"))
}

// isValidURL checks whether text can be a video link.
func isValidURL(text string) bool {
	return strings.HasPrefix(text, "http://") || strings.HasPrefix(text, "https://")
}
