package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"recipe-verifier/internal/core/pipeline"
	"recipe-verifier/internal/pkg/common"
)

const redisKeyPrefix = "recipe-verifier:result:"

// Store is the cache surface the handlers use. Both the in-process Manager
// (through managerStore) and RedisStore satisfy it.
type Store interface {
	Get(ctx context.Context, key string) *pipeline.Result
	Set(ctx context.Context, key string, result *pipeline.Result)
}

// NewStore picks the backend: Redis when an address is configured, the
// in-process manager otherwise.
func NewStore(redisAddr string, maxSize int, ttl, cleanupInterval time.Duration) Store {
	if redisAddr != "" {
		return NewRedisStore(redisAddr, ttl)
	}
	return managerStore{m: NewManager(maxSize, ttl, cleanupInterval)}
}

type managerStore struct {
	m *Manager
}

func (s managerStore) Get(_ context.Context, key string) *pipeline.Result {
	return s.m.Get(key)
}

func (s managerStore) Set(_ context.Context, key string, result *pipeline.Result) {
	s.m.Set(key, result)
}

// RedisStore caches verification results in Redis so replicas share one
// cache. Redis failures degrade to cache misses; they never fail a request.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisStore{client: client, ttl: ttl}
}

// Get fetches and decodes a cached result.
func (s *RedisStore) Get(ctx context.Context, key string) *pipeline.Result {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if err == redis.Nil {
		common.LogCacheMiss("result", key)
		return nil
	}
	if err != nil {
		common.LogWarn("redis get failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	var result pipeline.Result
	if err := common.ParseJSON(raw, &result); err != nil {
		common.LogWarn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	common.LogCacheHit("result", key)
	return &result
}

// Set stores a result with the configured TTL.
func (s *RedisStore) Set(ctx context.Context, key string, result *pipeline.Result) {
	payload, err := common.ToJSON(result)
	if err != nil {
		common.LogWarn("failed to encode result for cache", zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, redisKeyPrefix+key, payload, s.ttl).Err(); err != nil {
		common.LogWarn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Ping verifies connectivity, used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
