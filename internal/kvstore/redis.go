package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore is a KeyValueStore backed by Redis. Values persist without TTL;
// drafts live until explicitly deleted.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("kvstore: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("formscore.internal.kvstore.redis")
	}
	return &RedisStore{
		redis:  client,
		tracer: tracer,
	}
}

// Get retrieves a value by key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "kvstore.get")
	defer span.End()

	value, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrNotFound
		}
		span.RecordError(err)
		return "", fmt.Errorf("kvstore: failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value under key.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	ctx, span := s.tracer.Start(ctx, "kvstore.set")
	defer span.End()

	if err := s.redis.Set(ctx, key, value, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "kvstore.delete")
	defer span.End()

	if err := s.redis.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: failed to delete key %s: %w", key, err)
	}
	return nil
}

// Keys scans for all keys with the given prefix.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "kvstore.keys")
	defer span.End()

	var keys []string
	iter := s.redis.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("kvstore: failed to scan keys: %w", err)
	}
	return keys, nil
}
