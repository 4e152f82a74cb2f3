package authservice

import (
	"context"
	"docauth/internal/models"
)

type AccountManager interface {
	CreateUser(ctx context.Context, login, password, organizationID string) (*models.User, error)
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
}

type SessionStore interface {
	SaveSession(ctx context.Context, session *models.Session) error
	Session(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
}
