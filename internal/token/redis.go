package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in redis, under a namespaced key, so a
// fleet of workers can share one session token.
type RedisStore struct {
	rdb *redis.Client
	key string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{
		rdb: rdb,
		key: "leaderboard:" + Key,
	}, nil
}

// Token returns the persisted token, or "" when the key is absent.
func (s *RedisStore) Token(ctx context.Context) (string, error) {
	tok, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get token: %w", err)
	}
	return tok, nil
}

// SetToken persists the token without expiry.
func (s *RedisStore) SetToken(ctx context.Context, tok string) error {
	if err := s.rdb.Set(ctx, s.key, tok, 0).Err(); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

// ClearToken removes the token.
func (s *RedisStore) ClearToken(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
