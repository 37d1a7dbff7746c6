package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rgehrsitz/corpusplan/internal/domain"
)

// RedisStore keeps one JSON value per username with an optional TTL.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl keeps values forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "corpusplan:user:", ttl: ttl}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func (s *RedisStore) key(username string) string {
	return s.prefix + username
}

func (s *RedisStore) Load(ctx context.Context, username string) (*domain.UserProfile, error) {
	val, err := s.client.Get(ctx, s.key(username)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return domain.ParseUserData(val)
}

func (s *RedisStore) Save(ctx context.Context, profile *domain.UserProfile) error {
	ok, err := checkSave(profile)
	if !ok {
		return err
	}
	data, err := encode(profile)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(profile.Username), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
