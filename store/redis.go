package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AnandSundar/go-likecache"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces like status keys in Redis
const DefaultKeyPrefix = "likecache:"

// clearBatchSize is how many deletes are queued per pipeline round in Clear
const clearBatchSize = 200

// RedisStore is a Redis-backed implementation of likecache.Store. It lets
// several processes of one client share like status.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
}

// RedisOption configures a RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the prefix for every key the store writes
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRetention makes Redis drop entries after d. Zero keeps them until overwritten.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.retention = d
	}
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: DefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get retrieves an entry from Redis
func (s *RedisStore) Get(ctx context.Context, key string) (*likecache.Entry, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, likecache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry likecache.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode like status %s: %w", key, err)
	}

	return &entry, nil
}

// Set stores an entry in Redis
func (s *RedisStore) Set(ctx context.Context, key string, entry *likecache.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(key), data, s.retention).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes an entry from Redis
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key under the store's prefix
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 1000).Iterator()
	pipe := s.client.Pipeline()
	n := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		n++
		if n%clearBatchSize == 0 {
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis clear: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if n%clearBatchSize != 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
	}
	return nil
}
