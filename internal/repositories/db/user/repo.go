package userrepo

import (
	"context"
	"database/sql"
	"docauth/internal/entities"
	"docauth/internal/models"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const pkg = "userRepo/"

const uniqueViolation = "23505"

const (
	insertUser = `INSERT INTO users(id, login, organization_id, pass_hash) VALUES($1, $2, $3, $4)`

	selectUserByLogin = `SELECT
			u.id AS id,
			u.login AS login,
			u.organization_id AS organization_id,
			u.pass_hash AS pass_hash
		FROM users u
		WHERE u.login = $1`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *repository {
	return &repository{db: db}
}

// AddUser stores user. Owners are stored with an empty organization.
func (r *repository) AddUser(ctx context.Context, user models.User) error {
	op := pkg + "AddUser"

	_, err := r.db.ExecContext(ctx, insertUser,
		user.ID, user.Login, user.OrganizationID, user.PassHash)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &models.UniqueConstraintError{
				Constraint: pgErr.Constraint,
				Err:        models.ErrUNIQUEConstraintFailed,
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *repository) UserByLogin(ctx context.Context, login string) (*models.User, error) {
	op := pkg + "UserByLogin"

	var raw entities.User

	err := r.db.GetContext(ctx, &raw, selectUserByLogin, login)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toModel(raw), nil
}

func toModel(raw entities.User) *models.User {
	return &models.User{
		ID:             raw.ID,
		Login:          raw.Login,
		OrganizationID: raw.OrganizationID,
		PassHash:       raw.PassHash,
	}
}
