package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkorchagin/telegram-clip-bot/internal/config"
	"github.com/dkorchagin/telegram-clip-bot/internal/extractor"
	"github.com/dkorchagin/telegram-clip-bot/internal/i18n"
	"github.com/dkorchagin/telegram-clip-bot/internal/session"
	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// fakeExtractor is a scriptable Extractor for handler tests.
type fakeExtractor struct {
	probeMeta  *extractor.Metadata
	probeErr   error
	probeCalls int

	fetchErr   error
	fetchSize  int
	fetchCalls int
	lastFetch  extractor.FetchRequest
}

func (f *fakeExtractor) Probe(_ context.Context, _ string) (*extractor.Metadata, error) {
	f.probeCalls++
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return f.probeMeta, nil
}

func (f *fakeExtractor) Fetch(_ context.Context, req extractor.FetchRequest) error {
	f.fetchCalls++
	f.lastFetch = req
	if f.fetchErr != nil {
		return f.fetchErr
	}
	if f.fetchSize > 0 {
		return os.WriteFile(req.OutputPath, make([]byte, f.fetchSize), 0o644)
	}
	return nil
}

func newTestHandler(t *testing.T, ext extractor.Extractor) (*BotHandler, *session.MemoryStore) {
	t.Helper()

	logger, err := utils.NewLogger(&utils.LoggerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	catalog, err := i18n.NewCatalog("ru", "", logger)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	cfg := &config.Config{
		Download: config.DownloadConfig{
			TempDir:      t.TempDir(),
			MaxFileSize:  1024,
			ProbeTimeout: 5 * time.Second,
			FetchTimeout: 5 * time.Second,
		},
		Quota: config.QuotaConfig{DailyLimit: 2, PendingTTL: time.Hour},
	}

	store := session.NewMemoryStore("ru", cfg.Quota.DailyLimit, cfg.Quota.PendingTTL)
	return NewBotHandler(nil, store, ext, nil, catalog, cfg, logger), store
}

func TestGateLinkRejectsNonURL(t *testing.T) {
	fake := &fakeExtractor{}
	h, _ := newTestHandler(t, fake)

	reply, proceed := h.gateLink(context.Background(), 1, "ru", "hello there")
	if proceed {
		t.Fatal("plain text should not proceed to the probe")
	}
	if !strings.Contains(reply, "ссылку") {
		t.Errorf("expected the localized invalid-url reply, got %q", reply)
	}
}

func TestGateLinkQuotaExhaustion(t *testing.T) {
	fake := &fakeExtractor{}
	h, _ := newTestHandler(t, fake)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, proceed := h.gateLink(ctx, 1, "ru", "https://example.com/v"); !proceed {
			t.Fatalf("submission %d should pass the gate", i+1)
		}
	}

	reply, proceed := h.gateLink(ctx, 1, "ru", "https://example.com/v")
	if proceed {
		t.Fatal("submission above the daily limit should be rejected")
	}
	if reply != "⚠️ Ты достиг лимита на сегодня." {
		t.Errorf("unexpected limit reply %q", reply)
	}
	if fake.probeCalls != 0 {
		t.Errorf("the gate must never consult the extractor, probe called %d times", fake.probeCalls)
	}
}

func TestPrepareLinkRoundTrip(t *testing.T) {
	fake := &fakeExtractor{
		probeMeta: &extractor.Metadata{Title: "Sample", Duration: 125 * time.Second},
	}
	h, store := newTestHandler(t, fake)
	ctx := context.Background()

	url := "https://example.com/watch?v=abc"
	preview, err := h.prepareLink(ctx, url)
	if err != nil {
		t.Fatalf("prepareLink failed: %v", err)
	}
	if preview.Title != "Sample" {
		t.Errorf("title = %q, want Sample", preview.Title)
	}
	if formatDuration(preview.Duration) != "2m 5s" {
		t.Errorf("duration rendering = %q, want 2m 5s", formatDuration(preview.Duration))
	}

	resolved, ok := store.ResolvePending(ctx, preview.Key)
	if !ok {
		t.Fatal("preview key should resolve")
	}
	if resolved != url {
		t.Errorf("resolved URL = %q, want the original %q", resolved, url)
	}
}

func TestPrepareLinkAuthFailureIsNotRetried(t *testing.T) {
	fake := &fakeExtractor{
		probeErr: &extractor.Error{Kind: extractor.KindAuth, Op: "probe", Msg: "login required"},
	}
	h, _ := newTestHandler(t, fake)

	_, err := h.prepareLink(context.Background(), "https://example.com/v")
	if extractor.KindOf(err) != extractor.KindAuth {
		t.Fatalf("expected an auth-kind error, got %v", err)
	}
	if fake.probeCalls != 1 {
		t.Errorf("auth failures are stable and must not be retried, probe called %d times", fake.probeCalls)
	}
}

func TestProbeErrorReply(t *testing.T) {
	h, _ := newTestHandler(t, &fakeExtractor{})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "auth gets the distinct cookie prompt",
			err:  &extractor.Error{Kind: extractor.KindAuth, Op: "probe", Msg: "login required"},
			want: "🔒 Это видео требует входа в TikTok. Пожалуйста, отправьте cookies файл или выберите другое видео.",
		},
		{
			name: "timeout gets the timeout notice",
			err:  &extractor.Error{Kind: extractor.KindTimeout, Op: "probe", Msg: "deadline exceeded"},
			want: "⌛ Не удалось получить информацию о видео: превышено время ожидания.",
		},
		{
			name: "generic embeds the escaped message",
			err:  &extractor.Error{Kind: extractor.KindOther, Op: "probe", Msg: "<b>boom</b>"},
			want: "❌ Ошибка: &lt;b&gt;boom&lt;/b&gt;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.probeErrorReply("ru", tt.err); got != tt.want {
				t.Errorf("reply = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunJobSuccess(t *testing.T) {
	fake := &fakeExtractor{fetchSize: 512}
	h, store := newTestHandler(t, fake)
	ctx := context.Background()

	result, err := h.runJob(ctx, 1, "https://example.com/v", extractor.ModeVideo720)
	if err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	if result.Size != 512 {
		t.Errorf("size = %d, want 512", result.Size)
	}
	if filepath.Ext(result.Path) != ".mp4" {
		t.Errorf("output extension = %q, want .mp4", filepath.Ext(result.Path))
	}
	if !fake.lastFetch.Reencode {
		t.Error("users without a stored platform default to the phone re-encode")
	}

	// Desktop users get a remux instead.
	store.SetPlatform(ctx, 2, session.PlatformPC)
	if _, err := h.runJob(ctx, 2, "https://example.com/v", extractor.ModeVideo480); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	if fake.lastFetch.Reencode {
		t.Error("desktop platform should not request a re-encode")
	}
}

func TestRunJobAudioNeverReencodes(t *testing.T) {
	fake := &fakeExtractor{fetchSize: 100}
	h, _ := newTestHandler(t, fake)

	if _, err := h.runJob(context.Background(), 1, "https://example.com/v", extractor.ModeAudio); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	if fake.lastFetch.Reencode {
		t.Error("audio jobs have no video stream to re-encode")
	}
	if filepath.Ext(fake.lastFetch.OutputPath) != ".mp3" {
		t.Errorf("audio output extension = %q, want .mp3", filepath.Ext(fake.lastFetch.OutputPath))
	}
}

func TestRunJobOversizedOutputIsDiscarded(t *testing.T) {
	fake := &fakeExtractor{fetchSize: 4096} // above the 1024-byte test ceiling
	h, _ := newTestHandler(t, fake)

	_, err := h.runJob(context.Background(), 1, "https://example.com/v", extractor.ModeVideo480)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	if _, statErr := os.Stat(fake.lastFetch.OutputPath); !os.IsNotExist(statErr) {
		t.Error("oversized output should be deleted, not kept for delivery")
	}
}

func TestRunJobMissingOutput(t *testing.T) {
	fake := &fakeExtractor{fetchSize: 0} // reports success, writes nothing
	h, _ := newTestHandler(t, fake)

	_, err := h.runJob(context.Background(), 1, "https://example.com/v", extractor.ModeVideo480)
	if !errors.Is(err, ErrOutputMissing) {
		t.Fatalf("expected ErrOutputMissing, got %v", err)
	}
}

func TestRunJobFetchErrorCleansUp(t *testing.T) {
	fake := &fakeExtractor{
		fetchErr: &extractor.Error{Kind: extractor.KindAuth, Op: "fetch", Msg: "login required"},
	}
	h, _ := newTestHandler(t, fake)

	_, err := h.runJob(context.Background(), 1, "https://example.com/v", extractor.ModeVideo480)
	if extractor.KindOf(err) != extractor.KindAuth {
		t.Fatalf("expected the auth error to pass through, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{125 * time.Second, "2m 5s"},
		{59 * time.Second, "0m 59s"},
		{3600 * time.Second, "60m 0s"},
		{0, "0m 0s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"https://youtube.com/watch?v=x", true},
		{"http://example.com", true},
		{"ftp://example.com", false},
		{"just text", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isValidURL(tt.text); got != tt.want {
			t.Errorf("isValidURL(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFormatKeyboardCarriesKey(t *testing.T) {
	rows := formatKeyboard("abc-123")

	buttons := 0
	for _, row := range rows {
		for _, btn := range row {
			buttons++
			if btn.Data != "abc-123" {
				t.Errorf("button %q carries data %q, want the pending key", btn.Unique, btn.Data)
			}
		}
	}
	if buttons != 3 {
		t.Errorf("expected 3 format buttons, got %d", buttons)
	}
}
