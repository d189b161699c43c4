package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tutorstack/retrieval/common/logger"
	"github.com/tutorstack/retrieval/config"
)

// RedisAnswerStore persists answer entries in Redis.
// Data model: key prefix+hash => JSON(AnswerEntry) with TTL. Redis enforces
// expiry, so a stale entry is already a miss by the time we read it.
type RedisAnswerStore struct {
	rc      *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
}

// NewRedisAnswerStore connects to Redis using the answer-cache config.
func NewRedisAnswerStore(cfg config.AnswerCacheConfig) (*RedisAnswerStore, error) {
	opts, err := parseRedisOptions(cfg.Redis)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	rc := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed, err: %w", err)
	}
	return &RedisAnswerStore{rc: rc, prefix: "tutor:ans:", ttl: ttl, timeout: time.Second}, nil
}

func parseRedisOptions(raw map[string]interface{}) (*redis.Options, error) {
	addr, _ := raw["address"].(string)
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	opts := &redis.Options{Addr: addr}
	if u, ok := raw["username"].(string); ok {
		opts.Username = u
	}
	if p, ok := raw["password"].(string); ok {
		opts.Password = p
	}
	switch db := raw["db"].(type) {
	case int:
		opts.DB = db
	case float64:
		opts.DB = int(db)
	}
	return opts, nil
}

func (s *RedisAnswerStore) key(k string) string { return s.prefix + k }

func (s *RedisAnswerStore) Get(key string) (*AnswerEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, err := s.rc.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warnf("cache: redis answer get failed: %v", err)
		}
		return nil, false
	}
	var ent AnswerEntry
	if err := json.Unmarshal(raw, &ent); err != nil || ent.Answer == "" {
		// corrupted entry, treat as miss and evict
		logger.Warnf("cache: evicting corrupted answer entry %s", key)
		_ = s.rc.Del(ctx, s.key(key)).Err()
		return nil, false
	}
	return &ent, true
}

func (s *RedisAnswerStore) Set(key string, entry *AnswerEntry) {
	if entry == nil || entry.Answer == "" {
		return
	}
	b, err := json.Marshal(entry)
	if err != nil {
		logger.Warnf("cache: marshal answer entry failed: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.rc.Set(ctx, s.key(key), b, s.ttl).Err(); err != nil {
		logger.Warnf("cache: redis answer set failed: %v", err)
	}
}

func (s *RedisAnswerStore) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.rc.Del(ctx, s.key(key)).Err(); err != nil {
		logger.Warnf("cache: redis answer delete failed: %v", err)
	}
}

// Close releases the Redis connection.
func (s *RedisAnswerStore) Close() error { return s.rc.Close() }
