package documentservice

import (
	"context"
	"docauth/internal/models"
	"io"
)

type DocumentRepository interface {
	DocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID string, q models.ListQuery) (*models.DocumentPage, error)
	ListByOrganization(ctx context.Context, orgID string, q models.ListQuery) (*models.DocumentPage, error)
	Search(ctx context.Context, ownerID string, q models.SearchQuery) (*models.DocumentPage, error)
	Recent(ctx context.Context, ownerID string, limit int) ([]*models.Document, error)
	CountByStatus(ctx context.Context, ownerID string) (map[models.Status]int, error)
}

// Coordinator owns every write to a document.
type Coordinator interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	UpdateDocument(ctx context.Context, docID, ownerID string, upd models.DocumentUpdate) (*models.Document, error)
	ArchiveDocument(ctx context.Context, docID, ownerID string) error
}

type BlobStore interface {
	Put(ctx context.Context, ref string, r io.Reader) (int64, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

type Cache interface {
	Stamp(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}) error
	Del(ctx context.Context, keys ...string) error
}
