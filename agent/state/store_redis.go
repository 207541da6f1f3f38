package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr      string        `envconfig:"ADDR" split_words:"true" default:"localhost:6379"`
	Password  string        `envconfig:"PASSWORD" split_words:"true"`
	DB        int           `envconfig:"DB" split_words:"true" default:"0"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" split_words:"true" default:"deptrouter:conv:"`
	TTL       time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists each conversation as one JSON value.
type RedisStore struct {
	client redis.UniversalClient
	keys   keyspace
}

func NewRedisStore(client redis.UniversalClient, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	keys, err := newKeyspace(keyPrefix, ttl)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client, keys: keys}, nil
}

// NewRedisStoreFromConfig dials a single-node client.
func NewRedisStoreFromConfig(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisStore(client, cfg.KeyPrefix, cfg.TTL)
}

func (s *RedisStore) Load(ctx context.Context, conversationID string) (*Conversation, error) {
	key, err := s.keys.key(conversationID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decodeConversation(raw)
}

func (s *RedisStore) Save(ctx context.Context, c *Conversation) error {
	payload, err := encodeConversation(c)
	if err != nil {
		return err
	}
	key, err := s.keys.key(c.ID)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, payload, s.keys.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	key, err := s.keys.key(conversationID)
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
