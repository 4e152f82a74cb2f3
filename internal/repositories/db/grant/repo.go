package grantrepo

import (
	"context"
	"docauth/internal/dbs/postgres"
	"docauth/internal/models"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const pkg = "grantRepo/"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *repository {
	return &repository{db: db}
}

// Grant records access for orgID. It reports whether a new row was created;
// granting twice is a no-op.
func (r *repository) Grant(ctx context.Context, docID, orgID string) (bool, error) {
	op := pkg + "Grant"

	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO document_grants (document_id, organization_id)
		VALUES ($1, $2)
		ON CONFLICT (document_id, organization_id) DO NOTHING`,
		docID, orgID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (r *repository) Revoke(ctx context.Context, docID, orgID string) error {
	op := pkg + "Revoke"

	res, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM document_grants WHERE document_id = $1 AND organization_id = $2`,
		docID, orgID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrGrantNotFound)
	}

	return nil
}
