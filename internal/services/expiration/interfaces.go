package expirationservice

import (
	"context"
	cacherepo "docauth/internal/repositories/cache"
	"time"
)

type OverdueLister interface {
	OverdueDocumentIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type Expirer interface {
	ExpireDocument(ctx context.Context, docID string, asOf time.Time) (bool, error)
}

type Locker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) cacherepo.CacheResponse[bool]
}
