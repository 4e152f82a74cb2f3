package authservice

import (
	"context"
	"crypto/subtle"
	"docauth/internal/models"
	"errors"
	"fmt"
	"log/slog"
	"time"

	uuid "github.com/satori/go.uuid"
)

const pkg = "authService/"

// AuthService gates registration behind the admin token and maps bearer
// tokens to sessions.
type AuthService struct {
	log        *slog.Logger
	accounts   AccountManager
	sessions   SessionStore
	adminToken string
	now        func() time.Time
}

func New(
	log *slog.Logger,
	accounts AccountManager,
	sessions SessionStore,
	adminToken string,
) *AuthService {
	return &AuthService{
		log:        log,
		accounts:   accounts,
		sessions:   sessions,
		adminToken: adminToken,
		now:        time.Now,
	}
}

// Register creates a user. organizationID is optional and makes the user a
// reviewer for that organization. An empty admin token disables registration.
func (a *AuthService) Register(ctx context.Context, login, password, organizationID, token string) (string, error) {
	op := pkg + "Register"

	log := a.log.With(slog.String("op", op))

	if a.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
		log.Warn("invalid admin token")
		return "", fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}

	user, err := a.accounts.CreateUser(ctx, login, password, organizationID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidParams), errors.Is(err, models.ErrUserExists):
			log.Warn("user rejected", slog.String("error", err.Error()))
			return "", fmt.Errorf("%s: %w", op, err)
		default:
			log.Error("failed to create user", slog.String("error", err.Error()))
			return "", fmt.Errorf("%s: %w", op, models.ErrInternal)
		}
	}

	log.Info("user registered", slog.String("user_id", user.ID), slog.String("org_id", user.OrganizationID))

	return user.Login, nil
}

func (a *AuthService) Login(ctx context.Context, login string, password string) (string, error) {
	op := pkg + "Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.accounts.Authenticate(ctx, login, password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUserNotFound), errors.Is(err, models.ErrInvalidCredentials):
			log.Info("login rejected", slog.String("error", err.Error()))
			return "", fmt.Errorf("%s: %w", op, err)
		default:
			log.Error("failed to authenticate", slog.String("error", err.Error()))
			return "", fmt.Errorf("%s: %w", op, models.ErrInternal)
		}
	}

	session := &models.Session{
		Token:    uuid.NewV4().String(),
		User:     *user,
		IssuedAt: a.now().UTC(),
	}

	if err := a.sessions.SaveSession(ctx, session); err != nil {
		log.Error("failed to store session", slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	log.Debug("session opened", slog.String("user_id", user.ID))

	return session.Token, nil
}

func (a *AuthService) UserByToken(ctx context.Context, token string) (*models.User, error) {
	op := pkg + "UserByToken"

	log := a.log.With(slog.String("op", op))

	session, err := a.sessions.Session(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			log.Warn("session not found")
			return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
		}
		log.Error("failed to load session", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	return &session.User, nil
}

func (a *AuthService) Logout(ctx context.Context, token string) error {
	op := pkg + "Logout"

	log := a.log.With(slog.String("op", op))

	err := a.sessions.DeleteSession(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return fmt.Errorf("%s: %w", op, models.ErrSessionNotFound)
		}
		log.Error("failed to delete session", slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	log.Debug("session closed")

	return nil
}
