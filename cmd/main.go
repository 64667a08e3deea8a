package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/telebot.v3"

	"github.com/dkorchagin/telegram-clip-bot/internal/config"
	"github.com/dkorchagin/telegram-clip-bot/internal/database"
	"github.com/dkorchagin/telegram-clip-bot/internal/extractor"
	"github.com/dkorchagin/telegram-clip-bot/internal/handlers"
	"github.com/dkorchagin/telegram-clip-bot/internal/i18n"
	"github.com/dkorchagin/telegram-clip-bot/internal/session"
	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(&utils.LoggerConfig{
		Enabled:    cfg.Log.Enabled,
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		JSONFormat: cfg.Log.JSONFormat,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Console:    true,
	})
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting clip bot")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The extractor shells out to yt-dlp and ffmpeg; refuse to start
	// without them.
	depChecker := utils.NewDependencyChecker(cfg.Download.YTDLPPath, cfg.Download.FFmpegPath)
	if err := depChecker.Check(ctx); err != nil {
		logger.Error("Dependency check failed: %v", err)
		fmt.Printf("Dependency check failed: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Download.TempDir, 0o755); err != nil {
		logger.Error("Failed to create download directory: %v", err)
		os.Exit(1)
	}

	// Session store: in-memory by default, Redis when configured.
	var store session.Store
	if cfg.Redis.URI != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis.URI)
		if err != nil {
			logger.Error("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		store = session.NewRedisStore(redisClient, cfg.Locale.Default, cfg.Quota.DailyLimit, cfg.Quota.PendingTTL, logger)
		logger.Info("Using Redis session store")
	} else {
		memStore := session.NewMemoryStore(cfg.Locale.Default, cfg.Quota.DailyLimit, cfg.Quota.PendingTTL)
		memStore.StartCleanupScheduler(ctx)
		store = memStore
		logger.Info("Using in-memory session store")
	}

	// Download history: optional, requires MongoDB.
	var history *database.HistoryRepository
	if cfg.MongoDB.URI != "" {
		connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err := database.NewMongoClient(connectCtx, cfg.MongoDB.URI)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to MongoDB: %v", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := mongoClient.Disconnect(shutdownCtx); err != nil {
				logger.Error("Error disconnecting MongoDB: %v", err)
			}
		}()

		history = database.NewHistoryRepository(mongoClient, cfg.MongoDB.Database, logger)
		logger.Info("Download history enabled")
	}

	catalog, err := i18n.NewCatalog(cfg.Locale.Default, cfg.Locale.Path, logger)
	if err != nil {
		logger.Error("Failed to load message catalog: %v", err)
		os.Exit(1)
	}

	ytdlp := extractor.NewYTDLP(
		depChecker.Path(cfg.Download.YTDLPPath),
		depChecker.Path(cfg.Download.FFmpegPath),
		cfg.Cookies.Path,
		logger,
	)

	// One handler set behind either transport: long polling by default,
	// a webhook endpoint when a public URL is configured.
	var poller telebot.Poller
	if cfg.WebhookMode() {
		poller = &telebot.Webhook{
			Listen:   cfg.Telegram.ListenAddr,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Telegram.WebhookURL},
		}
		logger.Info("Using webhook transport on %s", cfg.Telegram.ListenAddr)
	} else {
		poller = &telebot.LongPoller{Timeout: cfg.Telegram.PollTimeout}
		logger.Info("Using long polling transport")
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
	})
	if err != nil {
		logger.Error("Failed to create Telegram bot: %v", err)
		fmt.Printf("Failed to create Telegram bot: %v\n", err)
		os.Exit(1)
	}

	handler := handlers.NewBotHandler(bot, store, ytdlp, history, catalog, cfg, logger)
	handler.RegisterHandlers()

	logger.Info("Bot started successfully")
	fmt.Println("Bot started successfully")

	go bot.Start()

	// Sweep temp files that error paths left behind.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := utils.CleanupDir(cfg.Download.TempDir, 24*time.Hour); err != nil {
					logger.Error("Failed to clean up downloads: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down bot...")
	fmt.Println("Shutting down bot...")
	bot.Stop()
}
