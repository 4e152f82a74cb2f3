package redis

import (
	"context"
	cacherepo "docauth/internal/repositories/cache"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pkg = "redis/"

const scanBatch = 100

type Config struct {
	Addr     string
	Password string
	DB       int
}

type Client struct {
	redisClient redis.UniversalClient
}

type redisResponse[T any] struct {
	cmd redis.Cmder
	get func() (T, error)
}

func (r redisResponse[T]) Err() error {
	err := r.cmd.Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

func (r redisResponse[T]) Result() (T, error) {
	res, err := r.get()
	if errors.Is(err, redis.Nil) {
		var zero T
		return zero, nil
	}

	return res, err
}

// valueResponse carries a result computed over several round trips.
type valueResponse[T any] struct {
	val T
	err error
}

func (r valueResponse[T]) Err() error {
	return r.err
}

func (r valueResponse[T]) Result() (T, error) {
	return r.val, r.err
}

func (c *Client) Get(ctx context.Context, key string) cacherepo.CacheResponse[string] {
	cmd := c.redisClient.Get(ctx, key)
	return redisResponse[string]{
		cmd: cmd,
		get: cmd.Result,
	}
}

func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) cacherepo.CacheResponse[string] {
	cmd := c.redisClient.Set(ctx, key, value, expiration)
	return redisResponse[string]{
		cmd: cmd,
		get: cmd.Result,
	}
}

func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) cacherepo.CacheResponse[bool] {
	cmd := c.redisClient.SetNX(ctx, key, value, expiration)
	return redisResponse[bool]{
		cmd: cmd,
		get: cmd.Result,
	}
}

func (c *Client) Del(ctx context.Context, keys ...string) cacherepo.CacheResponse[int64] {
	cmd := c.redisClient.Del(ctx, keys...)
	return redisResponse[int64]{
		cmd: cmd,
		get: cmd.Result,
	}
}

func (c *Client) Incr(ctx context.Context, key string) cacherepo.CacheResponse[int64] {
	cmd := c.redisClient.Incr(ctx, key)
	return redisResponse[int64]{
		cmd: cmd,
		get: cmd.Result,
	}
}

// DelPattern walks the keyspace with SCAN MATCH and deletes every key that
// matches pattern. It returns the number of deleted keys.
func (c *Client) DelPattern(ctx context.Context, pattern string) cacherepo.CacheResponse[int64] {
	op := pkg + "DelPattern"

	var (
		cursor  uint64
		deleted int64
	)

	for {
		keys, next, err := c.redisClient.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return valueResponse[int64]{val: deleted, err: fmt.Errorf("%s: scan: %w", op, err)}
		}

		if len(keys) > 0 {
			n, err := c.redisClient.Del(ctx, keys...).Result()
			if err != nil {
				return valueResponse[int64]{val: deleted, err: fmt.Errorf("%s: del: %w", op, err)}
			}
			deleted += n
		}

		cursor = next
		if cursor == 0 {
			return valueResponse[int64]{val: deleted}
		}
	}
}

func (c *Client) Close() error {
	return c.redisClient.Close()
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	op := pkg + "New"

	client := NewFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))

	if err := client.redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: redis: ping failed: %w", op, err)
	}

	return client, nil
}

// NewFromClient wraps an already configured go-redis client.
func NewFromClient(rc redis.UniversalClient) *Client {
	return &Client{redisClient: rc}
}
