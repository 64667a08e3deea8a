package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the default in-process Store. All state is lost on
// restart, which is intentional. A single mutex guards every map, so
// the quota check-then-increment is atomic even for racing requests
// from the same user.
type MemoryStore struct {
	defaultLang string
	dailyLimit  int
	pendingTTL  time.Duration

	mu      sync.Mutex
	users   map[int64]*userState
	pending map[string]pendingEntry

	now func() time.Time
}

type userState struct {
	locale    string
	platform  Platform
	quotaDay  string
	quotaUsed int
}

type pendingEntry struct {
	url       string
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(defaultLang string, dailyLimit int, pendingTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		defaultLang: defaultLang,
		dailyLimit:  dailyLimit,
		pendingTTL:  pendingTTL,
		users:       make(map[int64]*userState),
		pending:     make(map[string]pendingEntry),
		now:         time.Now,
	}
}

func (s *MemoryStore) user(userID int64) *userState {
	u, ok := s.users[userID]
	if !ok {
		u = &userState{}
		s.users[userID] = u
	}
	return u
}

// Locale returns the user's interface locale, or the default when unset.
func (s *MemoryStore) Locale(_ context.Context, userID int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok && u.locale != "" {
		return u.locale
	}
	return s.defaultLang
}

// SetLocale records the user's interface locale.
func (s *MemoryStore) SetLocale(_ context.Context, userID int64, locale string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user(userID).locale = locale
	return nil
}

// Platform returns the user's chosen device, reporting whether one is set.
func (s *MemoryStore) Platform(_ context.Context, userID int64) (Platform, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok && u.platform != "" {
		return u.platform, true
	}
	return "", false
}

// SetPlatform records the user's chosen device.
func (s *MemoryStore) SetPlatform(_ context.Context, userID int64, platform Platform) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user(userID).platform = platform
	return nil
}

// CheckAndIncrementQuota implements the atomic daily counter.
func (s *MemoryStore) CheckAndIncrementQuota(_ context.Context, userID int64, day time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.user(userID)
	today := quotaDay(day)

	if u.quotaDay != today {
		u.quotaDay = today
		u.quotaUsed = 1
		return true, nil
	}
	if u.quotaUsed >= s.dailyLimit {
		return false, nil
	}
	u.quotaUsed++
	return true, nil
}

// StorePending records the URL under a fresh opaque key with a TTL.
func (s *MemoryStore) StorePending(_ context.Context, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := uuid.NewString()
	s.pending[key] = pendingEntry{
		url:       url,
		expiresAt: s.now().Add(s.pendingTTL),
	}
	return key, nil
}

// ResolvePending returns the URL behind a live key.
func (s *MemoryStore) ResolvePending(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[key]
	if !ok {
		return "", false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.pending, key)
		return "", false
	}
	return entry.url, true
}

// ClearPending removes a key. Clearing an unknown key is a no-op.
func (s *MemoryStore) ClearPending(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pending, key)
}

// cleanupExpired drops pending entries past their TTL.
func (s *MemoryStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.pending {
		if now.After(entry.expiresAt) {
			delete(s.pending, key)
		}
	}
}

// StartCleanupScheduler periodically removes expired pending entries
// until the context is cancelled.
func (s *MemoryStore) StartCleanupScheduler(ctx context.Context) {
	ticker := time.NewTicker(s.pendingTTL)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}
