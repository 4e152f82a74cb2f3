package userrepo

import (
	"context"
	"database/sql"
	"docauth/internal/models"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestAddUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		user    models.User
		execErr error
		check   func(t *testing.T, err error)
	}{
		{
			name: "reviewer",
			user: models.User{ID: "u1", Login: "reviewer1", OrganizationID: "org-a", PassHash: []byte("hashed")},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "owner without organization",
			user: models.User{ID: "u2", Login: "owner0001", PassHash: []byte("hashed")},
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "duplicate login",
			user:    models.User{ID: "u3", Login: "reviewer1", PassHash: []byte("hashed")},
			execErr: &pq.Error{Code: "23505", Constraint: "users_login_key"},
			check: func(t *testing.T, err error) {
				var uce *models.UniqueConstraintError
				require.ErrorAs(t, err, &uce)
				assert.Equal(t, "users_login_key", uce.Constraint)
				assert.ErrorIs(t, err, models.ErrUNIQUEConstraintFailed)
			},
		},
		{
			name:    "other postgres error",
			user:    models.User{ID: "u4", Login: "reviewer2", PassHash: []byte("hashed")},
			execErr: &pq.Error{Code: "23502"},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "userRepo/AddUser")
				assert.NotErrorIs(t, err, models.ErrUNIQUEConstraintFailed)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockRepo(t)

			exec := mock.ExpectExec(regexp.QuoteMeta(insertUser)).
				WithArgs(tt.user.ID, tt.user.Login, tt.user.OrganizationID, tt.user.PassHash)
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			tt.check(t, repo.AddUser(context.Background(), tt.user))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserByLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rows     *sqlmock.Rows
		queryErr error
		want     *models.User
		wantErr  error
	}{
		{
			name: "reviewer",
			rows: sqlmock.NewRows([]string{"id", "login", "organization_id", "pass_hash"}).
				AddRow("u1", "reviewer1", "org-a", []byte("hashed")),
			want: &models.User{ID: "u1", Login: "reviewer1", OrganizationID: "org-a", PassHash: []byte("hashed")},
		},
		{
			name:     "not found",
			queryErr: sql.ErrNoRows,
			wantErr:  models.ErrUserNotFound,
		},
		{
			name:     "connection error",
			queryErr: errors.New("conn reset"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newMockRepo(t)

			query := mock.ExpectQuery(regexp.QuoteMeta(selectUserByLogin)).WithArgs("reviewer1")
			if tt.rows != nil {
				query.WillReturnRows(tt.rows)
			} else {
				query.WillReturnError(tt.queryErr)
			}

			user, err := repo.UserByLogin(context.Background(), "reviewer1")
			assert.NoError(t, mock.ExpectationsWereMet())

			switch {
			case tt.want != nil:
				require.NoError(t, err)
				assert.Equal(t, tt.want, user)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
			default:
				assert.ErrorContains(t, err, "userRepo/UserByLogin")
				assert.Nil(t, user)
			}
		})
	}
}
