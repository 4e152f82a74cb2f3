package cachesessionrepo

import (
	"context"
	"docauth/internal/models"
	cacherepo "docauth/internal/repositories/cache"
	"encoding/json"
	"fmt"
	"time"
)

const pkg = "sessionCacheRepo/"

// Sessions live under their own prefix so document cache invalidation never
// touches them.
const keyPrefix = "session:"

type repository struct {
	cache      cacherepo.Cache
	sessionTTL time.Duration
}

func New(cache cacherepo.Cache, sessionTTL time.Duration) *repository {
	return &repository{
		cache:      cache,
		sessionTTL: sessionTTL,
	}
}

func (r *repository) SaveSession(ctx context.Context, session *models.Session) error {
	op := pkg + "SaveSession"

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := r.cache.Set(ctx, keyPrefix+session.Token, string(payload), r.sessionTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *repository) Session(ctx context.Context, token string) (*models.Session, error) {
	op := pkg + "Session"

	payload, err := r.cache.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if payload == "" {
		return nil, models.ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session.Token = token

	return &session, nil
}

// DeleteSession reports ErrSessionNotFound when nothing was stored under token.
func (r *repository) DeleteSession(ctx context.Context, token string) error {
	op := pkg + "DeleteSession"

	deleted, err := r.cache.Del(ctx, keyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if deleted == 0 {
		return models.ErrSessionNotFound
	}

	return nil
}
