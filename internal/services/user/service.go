package userservice

import (
	"context"
	"docauth/internal/models"
	"docauth/internal/validator"
	"errors"
	"fmt"
	"log/slog"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/crypto/bcrypt"
)

const pkg = "userService/"

// UserService owns accounts and their credentials. Reviewers are users bound
// to an organization; owners have none.
type UserService struct {
	log          *slog.Logger
	userAdder    UserAdder
	userProvider UserProvider
	hashCost     int
}

func New(
	log *slog.Logger,
	userAdder UserAdder,
	userProvider UserProvider) *UserService {
	return &UserService{
		log:          log,
		userAdder:    userAdder,
		userProvider: userProvider,
		hashCost:     bcrypt.DefaultCost,
	}
}

func (u *UserService) CreateUser(ctx context.Context, login, password, organizationID string) (*models.User, error) {
	op := pkg + "CreateUser"

	log := u.log.With(slog.String("op", op))

	log.Debug("attempting to create user", slog.String("org_id", organizationID))

	if !validator.IsValidLogin(login) || !validator.IsValidPassword(password) {
		log.Warn("invalid login or password format")
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	if organizationID != "" && !validator.IsValidOrganizationID(organizationID) {
		log.Warn("invalid organization id", slog.String("org_id", organizationID))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidParams)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), u.hashCost)
	if err != nil {
		log.Error("failed to generate password hash", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	user := models.User{
		ID:             uuid.NewV4().String(),
		Login:          login,
		OrganizationID: organizationID,
		PassHash:       passHash,
	}

	err = u.userAdder.AddUser(ctx, user)
	if err != nil {
		var uce *models.UniqueConstraintError
		if errors.As(err, &uce) {
			log.Warn("user already exists", slog.String("constraint", uce.Constraint))
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		log.Error("failed to add user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrFailedToAddUser)
	}

	log.Debug("user created", slog.String("user_id", user.ID))

	return &user, nil
}

// Authenticate returns the user whose password matches. An unknown login
// yields ErrUserNotFound, a wrong password ErrInvalidCredentials.
func (u *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	op := pkg + "Authenticate"

	log := u.log.With(slog.String("op", op))

	user, err := u.userProvider.UserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Info("user not found")
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		log.Error("failed to get user by login", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInternal)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("password mismatch", slog.String("user_id", user.ID))
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	return user, nil
}
