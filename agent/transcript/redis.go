package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Address  string `envconfig:"ADDRESS" split_words:"true" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD" split_words:"true"`
	DB       int    `envconfig:"DB" split_words:"true" default:"0"`
}

func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         strings.TrimSpace(cfg.Address),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// RedisStore persists transcripts over the Redis protocol.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		client:    client,
		keyPrefix: o.keyPrefix,
		ttl:       o.ttl,
	}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Transcript, error) {
	key, err := redisKey(s.keyPrefix, sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transcript loaded from store: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) Save(ctx context.Context, t *Transcript) error {
	if err := prepareForSave(t); err != nil {
		return err
	}

	key, err := redisKey(s.keyPrefix, t.SessionID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	// Zero expiration keeps the key forever.
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	key, err := redisKey(s.keyPrefix, sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
