package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript initializes a missing counter to default-1, refuses at zero,
// and otherwise decrements. The whole check-and-decrement runs server-side
// so concurrent consumers can never drive the counter below zero.
var consumeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false then
  local remaining = tonumber(ARGV[1]) - 1
  redis.call('SET', KEYS[1], remaining, 'EX', ARGV[2])
  return remaining
end
current = tonumber(current)
if current <= 0 then
  return -1
end
current = current - 1
redis.call('SET', KEYS[1], current, 'EX', ARGV[2])
return current
`)

type RedisStore struct {
	client       *redis.Client
	defaultQuota int
	ttl          time.Duration
}

var _ Store = &RedisStore{}

func NewRedisStore(client *redis.Client, defaultQuota int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client:       client,
		defaultQuota: defaultQuota,
		ttl:          ttl,
	}
}

func quotaKey(sessionID string) string {
	return fmt.Sprintf("session:%s:quota", sessionID)
}

func sourcesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:sources", sessionID)
}

func (s *RedisStore) ConsumeQuota(ctx context.Context, sessionID string) (int, error) {
	seconds := int(s.ttl.Seconds())
	remaining, err := consumeScript.Run(ctx, s.client,
		[]string{quotaKey(sessionID)},
		s.defaultQuota, seconds,
	).Int()
	if err != nil {
		return 0, fmt.Errorf("consume quota for %s: %w", sessionID, err)
	}
	if remaining < 0 {
		return 0, ErrQuotaExhausted
	}
	return remaining, nil
}

func (s *RedisStore) GetQuota(ctx context.Context, sessionID string) (int, error) {
	remaining, err := s.client.Get(ctx, quotaKey(sessionID)).Int()
	if err == redis.Nil {
		return s.defaultQuota, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quota for %s: %w", sessionID, err)
	}
	return remaining, nil
}

func (s *RedisStore) ResetQuota(ctx context.Context, sessionID string) (int, error) {
	err := s.client.Set(ctx, quotaKey(sessionID), s.defaultQuota, s.ttl).Err()
	if err != nil {
		return 0, fmt.Errorf("reset quota for %s: %w", sessionID, err)
	}
	return s.defaultQuota, nil
}

func (s *RedisStore) AppendSource(ctx context.Context, sessionID string, src SourceMetadata) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal source %s: %w", src.Name, err)
	}

	key := sourcesKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, src.ID, raw)
	pipe.Expire(ctx, key, s.ttl)
	pipe.Expire(ctx, quotaKey(sessionID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append source %s: %w", src.Name, err)
	}
	return nil
}

func (s *RedisStore) ListSources(ctx context.Context, sessionID string) ([]SourceMetadata, error) {
	entries, err := s.client.HGetAll(ctx, sourcesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list sources for %s: %w", sessionID, err)
	}

	sources := make([]SourceMetadata, 0, len(entries))
	for _, raw := range entries {
		var src SourceMetadata
		if err := json.Unmarshal([]byte(raw), &src); err != nil {
			return nil, fmt.Errorf("decode source record: %w", err)
		}
		sources = append(sources, src)
	}

	// Hash iteration order is arbitrary; ids are UnixNano strings so a
	// length-then-lexical sort restores ingestion order.
	sort.Slice(sources, func(i, j int) bool {
		if len(sources[i].ID) != len(sources[j].ID) {
			return len(sources[i].ID) < len(sources[j].ID)
		}
		return sources[i].ID < sources[j].ID
	})
	return sources, nil
}

func (s *RedisStore) RemoveSource(ctx context.Context, sessionID string, name string) (bool, error) {
	sources, err := s.ListSources(ctx, sessionID)
	if err != nil {
		return false, err
	}

	var ids []string
	for _, src := range sources {
		if src.Name == name {
			ids = append(ids, src.ID)
		}
	}
	if len(ids) == 0 {
		return false, nil
	}

	key := sourcesKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, key, ids...)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("remove source %s: %w", name, err)
	}
	return true, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	err := s.client.Del(ctx, quotaKey(sessionID), sourcesKey(sessionID)).Err()
	if err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}
