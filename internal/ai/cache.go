package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the key/value backend of the completion cache.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisStore keeps cached completions in Redis.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore parses redisURL and verifies connectivity.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// CachedCompleter answers repeated prompts from a Store. A cache hit costs no
// tokens. Store failures are logged and fall through to the model.
type CachedCompleter struct {
	inner     Completer
	store     Store
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
}

// NewCachedCompleter wraps inner. namespace should identify the provider and
// model so answers from different models never mix.
func NewCachedCompleter(inner Completer, store Store, ttl time.Duration, namespace string, logger *slog.Logger) *CachedCompleter {
	return &CachedCompleter{inner: inner, store: store, ttl: ttl, namespace: namespace, logger: logger}
}

func (c *CachedCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	key := c.key(system, user)

	if content, ok, err := c.store.Get(ctx, key); err != nil {
		c.logger.Warn("ai cache read failed", "error", err)
	} else if ok {
		c.logger.Debug("ai cache hit", "key", key)
		return Completion{Content: content}, nil
	}

	completion, err := c.inner.Complete(ctx, system, user)
	if err != nil {
		return Completion{}, err
	}
	if err := c.store.Set(ctx, key, completion.Content, c.ttl); err != nil {
		c.logger.Warn("ai cache write failed", "error", err)
	}
	return completion, nil
}

func (c *CachedCompleter) key(system, user string) string {
	h := sha256.New()
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(user))
	return "jobanalysis:" + c.namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
