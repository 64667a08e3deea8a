package session

import (
	"context"
	"time"
)

// Platform is the device a user downloads for. Phone platforms get a
// compatibility re-encode; desktop gets a plain remux.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformPC      Platform = "pc"
)

// ParsePlatform maps a callback payload value to a Platform.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case PlatformIOS, PlatformAndroid, PlatformPC:
		return Platform(s), true
	}
	return "", false
}

// NeedsReencode reports whether downloads for this platform should be
// re-encoded to H.264/AAC instead of remuxed as-is.
func (p Platform) NeedsReencode() bool {
	return p != PlatformPC
}

// Store keeps per-user preferences, the daily download quota and the
// short-lived mapping from opaque request keys to submitted URLs.
type Store interface {
	// Locale returns the user's interface locale, or defaultLang when unset.
	Locale(ctx context.Context, userID int64) string
	SetLocale(ctx context.Context, userID int64, locale string) error

	// Platform returns the user's chosen device, reporting whether one is set.
	Platform(ctx context.Context, userID int64) (Platform, bool)
	SetPlatform(ctx context.Context, userID int64, platform Platform) error

	// CheckAndIncrementQuota atomically checks the user's counter for the
	// given day and increments it. It returns false, leaving the counter
	// at the cap, when the daily limit is already reached. A new day
	// starts the counter over at 1.
	CheckAndIncrementQuota(ctx context.Context, userID int64, day time.Time) (bool, error)

	// StorePending records a submitted URL under a fresh opaque key.
	StorePending(ctx context.Context, url string) (string, error)
	// ResolvePending returns the URL behind a key, reporting whether the
	// key is live.
	ResolvePending(ctx context.Context, key string) (string, bool)
	ClearPending(ctx context.Context, key string)
}

// quotaDay collapses a timestamp to its calendar day, so counters roll
// over exactly once per day.
func quotaDay(t time.Time) string {
	return t.Format("2006-01-02")
}
