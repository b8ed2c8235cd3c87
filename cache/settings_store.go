package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Durable playback settings keys. The coordinator owns no schema beyond
// these names; everything stored here survives process death.
const (
	KeyMusicLastID       = "music_last_id"
	KeyMusicLastPosition = "music_last_position"
	KeyMusicLastPlaying  = "music_last_playing"
	KeyBookLastID        = "book_last_id"
	KeyBookLastPosition  = "book_last_position"
	KeyBookLastPlaying   = "book_last_playing"
	KeyLastActiveType    = "last_active_type"
	KeyShuffle           = "shuffle"
	KeyRepeat            = "repeat"
)

// settingsKey builds the Redis hash key for a profile's playback settings.
func settingsKey(profileID int64) string {
	return fmt.Sprintf("playback:%d", profileID)
}

// RedisSettingsStore persists per-profile playback settings in a Redis hash.
// Writes are last-write-wins per field; there is no TTL, the record lives
// until explicitly cleared by a dismiss.
type RedisSettingsStore struct {
	client *redis.Client
}

// NewRedisSettingsStore creates a settings store on the given client.
func NewRedisSettingsStore(client *redis.Client) *RedisSettingsStore {
	return &RedisSettingsStore{client: client}
}

// Get returns the value for one settings key, or "" when unset.
func (s *RedisSettingsStore) Get(ctx context.Context, profileID int64, key string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("Redis client not initialized")
	}
	val, err := s.client.HGet(ctx, settingsKey(profileID), key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return val, nil
}

// Set writes the value for one settings key. An empty value clears the key,
// which is how "set to null" is represented.
func (s *RedisSettingsStore) Set(ctx context.Context, profileID int64, key, value string) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if value == "" {
		if err := s.client.HDel(ctx, settingsKey(profileID), key).Err(); err != nil {
			return fmt.Errorf("failed to clear setting %s: %w", key, err)
		}
		return nil
	}
	if err := s.client.HSet(ctx, settingsKey(profileID), key, value).Err(); err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// ReloadAll fetches every settings key for the profile in one round trip.
func (s *RedisSettingsStore) ReloadAll(ctx context.Context, profileID int64) (map[string]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}
	vals, err := s.client.HGetAll(ctx, settingsKey(profileID)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to reload settings: %w", err)
	}
	return vals, nil
}
