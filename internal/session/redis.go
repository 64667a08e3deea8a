package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/dkorchagin/telegram-clip-bot/internal/utils"
)

// quotaKeyTTL keeps finished day counters around briefly so that clock
// skew between instances cannot resurrect a spent quota.
const quotaKeyTTL = 48 * time.Hour

// RedisStore is a Store backed by Redis, for running several bot
// instances against shared session state. Quota increments use INCR,
// so the check-then-increment stays atomic across processes.
type RedisStore struct {
	client      *redis.Client
	defaultLang string
	dailyLimit  int
	pendingTTL  time.Duration
	logger      *utils.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, defaultLang string, dailyLimit int, pendingTTL time.Duration, logger *utils.Logger) *RedisStore {
	return &RedisStore{
		client:      client,
		defaultLang: defaultLang,
		dailyLimit:  dailyLimit,
		pendingTTL:  pendingTTL,
		logger:      logger,
	}
}

func localeKey(userID int64) string   { return fmt.Sprintf("session:locale:%d", userID) }
func platformKey(userID int64) string { return fmt.Sprintf("session:platform:%d", userID) }
func pendingKey(key string) string    { return "pending:" + key }

func quotaKey(userID int64, day string) string {
	return fmt.Sprintf("quota:%d:%s", userID, day)
}

// Locale returns the user's interface locale, or the default when unset.
func (s *RedisStore) Locale(ctx context.Context, userID int64) string {
	locale, err := s.client.Get(ctx, localeKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to read locale for user %d: %v", userID, err)
		}
		return s.defaultLang
	}
	return locale
}

// SetLocale records the user's interface locale.
func (s *RedisStore) SetLocale(ctx context.Context, userID int64, locale string) error {
	return s.client.Set(ctx, localeKey(userID), locale, 0).Err()
}

// Platform returns the user's chosen device, reporting whether one is set.
func (s *RedisStore) Platform(ctx context.Context, userID int64) (Platform, bool) {
	value, err := s.client.Get(ctx, platformKey(userID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to read platform for user %d: %v", userID, err)
		}
		return "", false
	}
	return ParsePlatform(value)
}

// SetPlatform records the user's chosen device.
func (s *RedisStore) SetPlatform(ctx context.Context, userID int64, platform Platform) error {
	return s.client.Set(ctx, platformKey(userID), string(platform), 0).Err()
}

// CheckAndIncrementQuota implements the atomic daily counter with INCR.
// Day rollover is handled by the date-scoped key. When the increment
// overshoots the cap, the counter is stepped back so it stays at the cap.
func (s *RedisStore) CheckAndIncrementQuota(ctx context.Context, userID int64, day time.Time) (bool, error) {
	key := quotaKey(userID, quotaDay(day))

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("quota increment: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, quotaKeyTTL).Err(); err != nil {
			s.logger.Error("Failed to set quota expiry for user %d: %v", userID, err)
		}
	}
	if count > int64(s.dailyLimit) {
		if err := s.client.Decr(ctx, key).Err(); err != nil {
			s.logger.Error("Failed to roll back quota overshoot for user %d: %v", userID, err)
		}
		return false, nil
	}
	return true, nil
}

// StorePending records the URL under a fresh opaque key with a TTL.
func (s *RedisStore) StorePending(ctx context.Context, url string) (string, error) {
	key := uuid.NewString()
	if err := s.client.Set(ctx, pendingKey(key), url, s.pendingTTL).Err(); err != nil {
		return "", fmt.Errorf("store pending link: %w", err)
	}
	return key, nil
}

// ResolvePending returns the URL behind a live key. Expiry is handled
// by the Redis TTL.
func (s *RedisStore) ResolvePending(ctx context.Context, key string) (string, bool) {
	url, err := s.client.Get(ctx, pendingKey(key)).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to resolve pending key: %v", err)
		}
		return "", false
	}
	return url, true
}

// ClearPending removes a key. Clearing an unknown key is a no-op.
func (s *RedisStore) ClearPending(ctx context.Context, key string) {
	if err := s.client.Del(ctx, pendingKey(key)).Err(); err != nil {
		s.logger.Error("Failed to clear pending key: %v", err)
	}
}
