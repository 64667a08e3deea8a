package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/telebot.v3"

	"github.com/dkorchagin/telegram-clip-bot/internal/extractor"
	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// linkPreview is the result of accepting a link: probed metadata plus
// the opaque key bridging intake and format selection.
type linkPreview struct {
	Title    string
	Duration time.Duration
	Key      string
}

// handleText treats every text message as a link submission. The quota
// gate runs synchronously; the probe runs in the background so one slow
// site does not stall the update loop.
func (h *BotHandler) handleText(c telebot.Context) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lang := h.locale(ctx, userID)

	if reply, proceed := h.gateLink(ctx, userID, lang, text); !proceed {
		return c.Send(reply)
	}

	chat := c.Chat()
	go h.processLink(chat, userID, lang, text)
	return nil
}

// gateLink validates a submission and spends one quota unit. It returns
// the localized rejection reply when the link must not proceed to the
// probe. The quota is charged up front and not refunded on failure.
func (h *BotHandler) gateLink(ctx context.Context, userID int64, lang, text string) (string, bool) {
	if !isValidURL(text) {
		return h.catalog.Get(lang, "invalid_url"), false
	}

	allowed, err := h.store.CheckAndIncrementQuota(ctx, userID, time.Now())
	if err != nil {
		h.logger.Error("Quota check failed for user %d: %v", userID, err)
		return h.catalog.Getf(lang, "probe_error", "internal error"), false
	}
	if !allowed {
		h.logger.Info("User %d hit the daily limit", userID)
		return h.catalog.Get(lang, "limit_msg"), false
	}
	return "", true
}

// processLink probes the URL and replies with the format keyboard.
func (h *BotHandler) processLink(chat *telebot.Chat, userID int64, lang, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Download.ProbeTimeout)
	defer cancel()

	preview, err := h.prepareLink(ctx, url)
	if err != nil {
		kind := extractor.KindOf(err)
		h.logger.Warn("Probe failed for user %d, url %s, kind %s: %v", userID, url, kind, err)
		h.history.RecordProbeFailure(context.Background(), userID, url, kind.String(), extractor.MessageOf(err))

		if _, err := h.bot.Send(chat, h.probeErrorReply(lang, err)); err != nil {
			h.logger.Error("Failed to send probe error to user %d: %v", userID, err)
		}
		return
	}

	body := fmt.Sprintf("<b>%s</b>\n⏱ %s\n%s",
		html.EscapeString(preview.Title),
		formatDuration(preview.Duration),
		h.catalog.Get(lang, "choose_format"),
	)

	_, err = h.bot.Send(chat, body, &telebot.SendOptions{ParseMode: telebot.ModeHTML}, &telebot.ReplyMarkup{
		InlineKeyboard: formatKeyboard(preview.Key),
	})
	if err != nil {
		h.logger.Error("Failed to send format keyboard to user %d: %v", userID, err)
	}
}

// prepareLink probes the URL and stores it under a fresh pending key.
// Transient probe failures are retried with backoff.
func (h *BotHandler) prepareLink(ctx context.Context, url string) (*linkPreview, error) {
	opts := utils.DefaultRetryOptions()
	opts.Retryable = extractor.Retryable
	opts.Logger = h.logger

	meta, err := utils.RetryWithResult(ctx, func() (*extractor.Metadata, error) {
		return h.extractor.Probe(ctx, url)
	}, opts)
	if err != nil {
		return nil, err
	}

	key, err := h.store.StorePending(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("store pending link: %w", err)
	}

	return &linkPreview{
		Title:    meta.Title,
		Duration: meta.Duration,
		Key:      key,
	}, nil
}

// probeErrorReply maps a classified probe failure to a localized reply.
func (h *BotHandler) probeErrorReply(lang string, err error) string {
	switch extractor.KindOf(err) {
	case extractor.KindAuth:
		return h.catalog.Get(lang, "probe_auth")
	case extractor.KindTimeout:
		return h.catalog.Get(lang, "probe_timeout")
	default:
		return h.catalog.Getf(lang, "probe_error", html.EscapeString(extractor.MessageOf(err)))
	}
}

// formatKeyboard builds the three-way format choice, each button
// carrying the pending key.
func formatKeyboard(key string) [][]telebot.InlineButton {
	return [][]telebot.InlineButton{
		{
			{Text: "🎥 480p", Unique: "dl_video480", Data: key},
			{Text: "🎥 720p", Unique: "dl_video720", Data: key},
		},
		{
			{Text: "🎧 mp3", Unique: "dl_audio", Data: key},
		},
	}
}

// formatDuration renders a duration as "3m 25s".
func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}
