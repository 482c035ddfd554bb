package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/imkonsowa/restaurants-linebot/config"
	"github.com/imkonsowa/restaurants-linebot/metrics"
	"github.com/redis/go-redis/v9"
)

// Cache stores JSON encoded values. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

type Redis struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{c: client, ttl: ttl}
}

// New returns a redis backed cache, or Noop when no address is configured.
func New(cfg config.Redis) Cache {
	if cfg.Addr == "" {
		return Noop{}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})

	return NewRedis(client, time.Duration(cfg.TTLSeconds)*time.Second)
}

func (r *Redis) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	metrics.ObserveCache("redis", "hit")

	return true, json.Unmarshal(v, dst)
}

func (r *Redis) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	metrics.ObserveCache("redis", "set")

	return r.c.Set(ctx, key, b, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.c.Close()
}

// Close releases the connection held by c, if any.
func Close(c Cache) error {
	if closer, ok := c.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }

func (Noop) Set(context.Context, string, any) error { return nil }
