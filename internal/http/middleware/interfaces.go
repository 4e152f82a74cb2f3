package middleware

import (
	"context"
	"docauth/internal/models"
	"time"
)

const pkg = "middleware/"

type SessionStorer interface {
	UserByToken(ctx context.Context, token string) (*models.User, error)
}

type HTTPObserver interface {
	ObserveHTTP(method, route string, code int, start time.Time)
}
