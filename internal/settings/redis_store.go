package settings

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps host configuration fields in a Redis hash
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore creates a service-backed store on the given hash key
func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

// Load returns every field of the hash
func (s *RedisStore) Load(ctx context.Context) (map[string]string, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from Redis: %w", s.key, err)
	}
	return fields, nil
}

// SaveFields merges fields into the hash
func (s *RedisStore) SaveFields(ctx context.Context, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.rdb.HSet(ctx, s.key, toArgs(fields)).Err(); err != nil {
		return fmt.Errorf("failed to write %s to Redis: %w", s.key, err)
	}
	return nil
}

// ReplaceFields atomically overwrites the hash so it holds exactly fields
func (s *RedisStore) ReplaceFields(ctx context.Context, fields map[string]string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(fields) > 0 {
			pipe.HSet(ctx, s.key, toArgs(fields))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace %s in Redis: %w", s.key, err)
	}
	return nil
}

func toArgs(fields map[string]string) map[string]interface{} {
	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	return args
}
