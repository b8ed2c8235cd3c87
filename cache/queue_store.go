package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// queueKey builds the Redis key for a profile's captured playlist context.
func queueKey(profileID int64) string {
	return fmt.Sprintf("queue:%d", profileID)
}

func queueIndexKey(profileID int64) string {
	return fmt.Sprintf("queue:%d:index", profileID)
}

// RedisQueueStore persists the playlist context captured at music selection
// time: the ordered item ids and the current index. Items are stored in a
// sorted set scored by position.
type RedisQueueStore struct {
	client *redis.Client
}

// NewRedisQueueStore creates a queue store on the given client.
func NewRedisQueueStore(client *redis.Client) *RedisQueueStore {
	return &RedisQueueStore{client: client}
}

// SaveQueue replaces the stored queue context for a profile.
func (s *RedisQueueStore) SaveQueue(ctx context.Context, profileID int64, itemIDs []int64, index int) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	key := queueKey(profileID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}

	if len(itemIDs) > 0 {
		members := make([]*redis.Z, len(itemIDs))
		for i, id := range itemIDs {
			members[i] = &redis.Z{
				Score:  float64(i),
				Member: strconv.FormatInt(id, 10),
			}
		}
		if err := s.client.ZAdd(ctx, key, members...).Err(); err != nil {
			return fmt.Errorf("failed to save queue: %w", err)
		}
	}

	if err := s.client.Set(ctx, queueIndexKey(profileID), index, 0).Err(); err != nil {
		return fmt.Errorf("failed to save queue index: %w", err)
	}
	return nil
}

// LoadQueue returns the stored item ids in order plus the current index.
// A missing queue returns an empty slice and index -1.
func (s *RedisQueueStore) LoadQueue(ctx context.Context, profileID int64) ([]int64, int, error) {
	if s.client == nil {
		return nil, -1, fmt.Errorf("Redis client not initialized")
	}

	raw, err := s.client.ZRangeByScore(ctx, queueKey(profileID), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, -1, fmt.Errorf("failed to load queue: %w", err)
	}

	ids := make([]int64, 0, len(raw))
	for _, member := range raw {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue // skip corrupt members rather than failing the restore
		}
		ids = append(ids, id)
	}

	index := -1
	idxVal, err := s.client.Get(ctx, queueIndexKey(profileID)).Result()
	if err == nil {
		if parsed, perr := strconv.Atoi(idxVal); perr == nil {
			index = parsed
		}
	} else if err != redis.Nil {
		return nil, -1, fmt.Errorf("failed to load queue index: %w", err)
	}

	return ids, index, nil
}

// ClearQueue removes the stored queue context for a profile.
func (s *RedisQueueStore) ClearQueue(ctx context.Context, profileID int64) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}
	if err := s.client.Del(ctx, queueKey(profileID), queueIndexKey(profileID)).Err(); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	return nil
}
