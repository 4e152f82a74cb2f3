package verificationservice

import (
	"context"
	"docauth/internal/models"
)

type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	DocumentByID(ctx context.Context, id string) (*models.Document, error)
	UpdateIfVersion(ctx context.Context, doc *models.Document, expected int64) error
}

type AccessLedger interface {
	Grant(ctx context.Context, docID, orgID string) (bool, error)
	Revoke(ctx context.Context, docID, orgID string) error
}

type Outbox interface {
	Enqueue(ctx context.Context, events ...models.OutboxEvent) error
}

type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, docID, ownerID string, orgIDs []string) error
}
