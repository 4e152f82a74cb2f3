package cacherepo

import (
	"context"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) CacheResponse[string]
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) CacheResponse[string]
	Del(ctx context.Context, keys ...string) CacheResponse[int64]
}

// PatternCache can drop every key that matches a glob pattern.
type PatternCache interface {
	Cache
	DelPattern(ctx context.Context, pattern string) CacheResponse[int64]
}

// GenerationCache keeps counters that retire every key stamped with an older
// value.
type GenerationCache interface {
	PatternCache
	Incr(ctx context.Context, key string) CacheResponse[int64]
}

type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) CacheResponse[bool]
}

type CacheResponse[T any] interface {
	Err() error
	Result() (T, error)
}
