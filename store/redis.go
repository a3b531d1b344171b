package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	xlog "github.com/goliatone/go-persisted/internal/log"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`     // host:port
	Password string `yaml:"password"` // optional
	DB       int    `yaml:"db"`
}

// Redis stores records as plain string keys in one Redis database. Records
// never expire.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

// OpenRedis connects to Redis and verifies the connection with a ping.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("store: redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: redis connection failed: %w", err)
	}

	s := NewRedis(client)
	s.logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to redis")
	return s, nil
}

// NewRedis wraps an existing client. Close closes the client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		logger: xlog.WithComponent("store.redis"),
	}
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, wrap("redis", "get", key, mapRedisErr(err))
	}
	if val == nil {
		val = []byte{}
	}
	return val, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return s.Delete(ctx, key)
	}
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.client.Set(ctx, key, value, 0).Err()
	return wrap("redis", "set", key, mapRedisErr(err))
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	err := s.client.Del(ctx, key).Err()
	return wrap("redis", "delete", key, mapRedisErr(err))
}

func (s *Redis) Close() error {
	return s.client.Close()
}

func mapRedisErr(err error) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrClosed
	}
	return err
}
