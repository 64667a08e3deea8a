package session

import (
	"context"
	"testing"
	"time"
)

func newTestStore(limit int, ttl time.Duration) *MemoryStore {
	return NewMemoryStore("ru", limit, ttl)
}

func TestQuotaDailyLimit(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()
	day := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		allowed, err := store.CheckAndIncrementQuota(ctx, 42, day)
		if err != nil {
			t.Fatalf("CheckAndIncrementQuota failed on attempt %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}

	allowed, err := store.CheckAndIncrementQuota(ctx, 42, day)
	if err != nil {
		t.Fatalf("CheckAndIncrementQuota failed: %v", err)
	}
	if allowed {
		t.Error("sixth attempt on the same day should be denied")
	}

	// Another user is unaffected.
	allowed, _ = store.CheckAndIncrementQuota(ctx, 43, day)
	if !allowed {
		t.Error("a different user should not share the counter")
	}
}

func TestQuotaResetsOnNewDay(t *testing.T) {
	store := newTestStore(2, time.Hour)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 0, 10, 0, 0, time.UTC)

	store.CheckAndIncrementQuota(ctx, 7, day1)
	store.CheckAndIncrementQuota(ctx, 7, day1)
	if allowed, _ := store.CheckAndIncrementQuota(ctx, 7, day1); allowed {
		t.Fatal("limit should be reached on day one")
	}

	if allowed, _ := store.CheckAndIncrementQuota(ctx, 7, day2); !allowed {
		t.Error("counter should start over on a new calendar day")
	}
}

func TestQuotaConcurrentSameUser(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()
	day := time.Now()

	const attempts = 50
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			allowed, _ := store.CheckAndIncrementQuota(ctx, 99, day)
			results <- allowed
		}()
	}

	granted := 0
	for i := 0; i < attempts; i++ {
		if <-results {
			granted++
		}
	}
	if granted != 5 {
		t.Errorf("expected exactly 5 grants under concurrency, got %d", granted)
	}
}

func TestPendingRoundTrip(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()

	url := "https://example.com/watch?v=abc123&t=5"
	key, err := store.StorePending(ctx, url)
	if err != nil {
		t.Fatalf("StorePending failed: %v", err)
	}
	if key == "" {
		t.Fatal("expected a non-empty key")
	}

	got, ok := store.ResolvePending(ctx, key)
	if !ok {
		t.Fatal("key should resolve before expiry")
	}
	if got != url {
		t.Errorf("resolved URL = %q, want %q", got, url)
	}

	store.ClearPending(ctx, key)
	if _, ok := store.ResolvePending(ctx, key); ok {
		t.Error("key should not resolve after ClearPending")
	}

	// Clearing again is a no-op.
	store.ClearPending(ctx, key)
}

func TestPendingKeysAreUnique(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		key, err := store.StorePending(ctx, "https://example.com/v")
		if err != nil {
			t.Fatalf("StorePending failed: %v", err)
		}
		if seen[key] {
			t.Fatalf("duplicate key %q", key)
		}
		seen[key] = true
	}
}

func TestPendingExpiry(t *testing.T) {
	store := newTestStore(5, time.Minute)
	ctx := context.Background()

	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	key, _ := store.StorePending(ctx, "https://example.com/v")

	current = current.Add(30 * time.Second)
	if _, ok := store.ResolvePending(ctx, key); !ok {
		t.Fatal("key should still resolve within the TTL")
	}

	current = current.Add(time.Hour)
	if _, ok := store.ResolvePending(ctx, key); ok {
		t.Error("key should not resolve past the TTL")
	}

	store.cleanupExpired()
	if len(store.pending) != 0 {
		t.Errorf("expected no pending entries after cleanup, got %d", len(store.pending))
	}
}

func TestLocaleDefault(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()

	if got := store.Locale(ctx, 1); got != "ru" {
		t.Errorf("unset locale = %q, want default ru", got)
	}

	store.SetLocale(ctx, 1, "en")
	if got := store.Locale(ctx, 1); got != "en" {
		t.Errorf("locale = %q, want en", got)
	}
}

func TestPlatformUnsetAndSet(t *testing.T) {
	store := newTestStore(5, time.Hour)
	ctx := context.Background()

	if _, ok := store.Platform(ctx, 1); ok {
		t.Error("platform should be unset for a new user")
	}

	store.SetPlatform(ctx, 1, PlatformAndroid)
	platform, ok := store.Platform(ctx, 1)
	if !ok || platform != PlatformAndroid {
		t.Errorf("platform = %q (%v), want android", platform, ok)
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		input string
		want  Platform
		ok    bool
	}{
		{"ios", PlatformIOS, true},
		{"android", PlatformAndroid, true},
		{"pc", PlatformPC, true},
		{"windows", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePlatform(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePlatform(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNeedsReencode(t *testing.T) {
	if !PlatformIOS.NeedsReencode() || !PlatformAndroid.NeedsReencode() {
		t.Error("phone platforms should request a re-encode")
	}
	if PlatformPC.NeedsReencode() {
		t.Error("desktop should remux without re-encode")
	}
}
