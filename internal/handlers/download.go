package handlers

import (
	"context"
	"errors"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/telebot.v3"

	"github.com/dkorchagin/telegram-clip-bot/internal/extractor"
	"github.com/dkorchagin/telegram-clip-bot/internal/models"
	"github.com/dkorchagin/telegram-clip-bot/internal/session"
)

var (
	// ErrLinkExpired is returned when a pending key no longer resolves.
	ErrLinkExpired = errors.New("pending link expired")
	// ErrOutputMissing is returned when the extractor reported success
	// but left no file behind.
	ErrOutputMissing = errors.New("output file not found")
	// ErrTooLarge is returned when the output exceeds the size ceiling.
	// The oversized file is already deleted by then.
	ErrTooLarge = errors.New("output file exceeds size limit")
)

// jobResult describes a finished media job ready to be delivered.
type jobResult struct {
	Path string
	Size int64
}

// handleFormatSelection handles the 480p / 720p / mp3 buttons. The
// callback is acknowledged right away; the fetch runs in the background.
func (h *BotHandler) handleFormatSelection(c telebot.Context) error {
	userID := c.Sender().ID

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := h.locale(ctx, userID)

	mode, ok := extractor.ParseMode(strings.TrimPrefix(c.Callback().Unique, "dl_"))
	if !ok {
		return c.Respond()
	}
	key := c.Data()

	if err := c.Respond(); err != nil {
		h.logger.Error("Failed to answer format callback: %v", err)
	}

	url, ok := h.store.ResolvePending(ctx, key)
	if !ok {
		return c.Send(h.catalog.Get(lang, "link_expired"))
	}

	if err := c.Send(h.catalog.Get(lang, "downloading")); err != nil {
		h.logger.Error("Failed to send downloading notice to user %d: %v", userID, err)
	}

	chat := c.Chat()
	prompt := c.Message()
	go h.processFetch(chat, prompt, userID, lang, key, url, mode)
	return nil
}

// processFetch runs the media job and delivers or reports the outcome.
func (h *BotHandler) processFetch(chat *telebot.Chat, prompt *telebot.Message, userID int64, lang, key, url string, mode extractor.Mode) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Download.FetchTimeout)
	defer cancel()

	job := models.NewMediaJob(userID, url, string(mode))
	started := time.Now()

	result, err := h.runJob(ctx, userID, url, mode)
	job.Elapsed = time.Since(started)

	if err != nil {
		h.reportFetchFailure(chat, job, lang, err)
		return
	}

	doc := &telebot.Document{
		File:     telebot.FromDisk(result.Path),
		FileName: filepath.Base(result.Path),
	}
	if _, err := h.bot.Send(chat, doc); err != nil {
		h.logger.Error("Failed to send document to user %d: %v", userID, err)
		os.Remove(result.Path)
		return
	}

	// Delivered: drop the temp file, retire the key, remove the prompt.
	if err := os.Remove(result.Path); err != nil {
		h.logger.Error("Failed to remove temp file %s: %v", result.Path, err)
	}
	h.store.ClearPending(context.Background(), key)
	if prompt != nil {
		if err := h.bot.Delete(prompt); err != nil {
			h.logger.Error("Failed to delete prompt message: %v", err)
		}
	}

	job.Status = models.JobStatusCompleted
	job.FileSize = result.Size
	h.history.RecordJob(context.Background(), job)
	h.logger.Info("Delivered %s (%d bytes) to user %d", mode, result.Size, userID)
}

// runJob fetches and transcodes one variant, enforcing the size ceiling.
func (h *BotHandler) runJob(ctx context.Context, userID int64, url string, mode extractor.Mode) (*jobResult, error) {
	outputPath := filepath.Join(h.config.Download.TempDir, uuid.NewString()+mode.Ext())

	platform, ok := h.store.Platform(ctx, userID)
	if !ok {
		platform = session.PlatformIOS
	}

	err := h.extractor.Fetch(ctx, extractor.FetchRequest{
		URL:        url,
		Mode:       mode,
		OutputPath: outputPath,
		Reencode:   mode != extractor.ModeAudio && platform.NeedsReencode(),
	})
	if err != nil {
		os.Remove(outputPath)
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, ErrOutputMissing
	}
	if info.Size() > h.config.Download.MaxFileSize {
		if err := os.Remove(outputPath); err != nil {
			h.logger.Error("Failed to remove oversized file %s: %v", outputPath, err)
		}
		return nil, ErrTooLarge
	}

	return &jobResult{Path: outputPath, Size: info.Size()}, nil
}

// reportFetchFailure converts a failed job into a localized reply and a
// history record. The quota is not refunded.
func (h *BotHandler) reportFetchFailure(chat *telebot.Chat, job *models.MediaJob, lang string, err error) {
	var reply string
	switch {
	case errors.Is(err, ErrTooLarge):
		job.Status = models.JobStatusTooLarge
		reply = h.catalog.Getf(lang, "too_large", h.config.Download.MaxFileSize/(1024*1024))
	case errors.Is(err, ErrOutputMissing):
		job.Status = models.JobStatusFailed
		job.ErrorKind = extractor.KindOther.String()
		reply = h.catalog.Getf(lang, "fetch_error", "output file not found")
	default:
		kind := extractor.KindOf(err)
		job.Status = models.JobStatusFailed
		job.ErrorKind = kind.String()
		switch kind {
		case extractor.KindAuth:
			reply = h.catalog.Get(lang, "fetch_auth")
		case extractor.KindTimeout:
			reply = h.catalog.Get(lang, "fetch_timeout")
		default:
			reply = h.catalog.Getf(lang, "fetch_error", html.EscapeString(extractor.MessageOf(err)))
		}
	}

	h.logger.Warn("Fetch failed for user %d, url %s: %v", job.ChatID, job.URL, err)
	h.history.RecordJob(context.Background(), job)

	if _, err := h.bot.Send(chat, reply); err != nil {
		h.logger.Error("Failed to send fetch failure to user %d: %v", job.ChatID, err)
	}
}

// handleDocument accepts cookie-file uploads. Only documents whose
// filename carries the configured site marker are written to the cookie
// path; everything else gets a prompt for the right file.
func (h *BotHandler) handleDocument(c telebot.Context) error {
	userID := c.Sender().ID
	doc := c.Message().Document

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lang := h.locale(ctx, userID)

	if doc == nil || !strings.Contains(doc.FileName, h.config.Cookies.SiteMarker) {
		return c.Send(h.catalog.Get(lang, "cookies_prompt"))
	}
	if doc.FileSize > h.config.Cookies.MaxUploadSize {
		return c.Send(h.catalog.Get(lang, "cookies_too_big"))
	}

	reader, err := h.bot.File(&doc.File)
	if err != nil {
		h.logger.Error("Failed to fetch cookie upload from user %d: %v", userID, err)
		return c.Send(h.catalog.Get(lang, "cookies_prompt"))
	}
	defer reader.Close()

	out, err := os.Create(h.config.Cookies.Path)
	if err != nil {
		h.logger.Error("Failed to open cookie file %s: %v", h.config.Cookies.Path, err)
		return c.Send(h.catalog.Getf(lang, "fetch_error", "internal error"))
	}
	defer out.Close()

	if _, err := out.ReadFrom(reader); err != nil {
		h.logger.Error("Failed to write cookie file: %v", err)
		return c.Send(h.catalog.Getf(lang, "fetch_error", "internal error"))
	}

	h.logger.Info("Stored cookie file from user %d", userID)
	return c.Send(h.catalog.Get(lang, "cookies_saved"))
}
