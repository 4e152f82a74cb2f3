package docs

import (
	"context"
	"docauth/internal/models"
	"io"
)

const pkg = "docsHandler/"

type DocumentUploader interface {
	UploadDocument(ctx context.Context, requester *models.User, doc *models.Document, file *models.FileUpload) (*models.Document, error)
}

type DocumentProvider interface {
	DocumentByID(ctx context.Context, docID string, requester *models.User) (*models.Document, error)
	DocumentFile(ctx context.Context, docID string, requester *models.User) (*models.Document, io.ReadCloser, error)
	ListDocuments(ctx context.Context, requester *models.User, q models.ListQuery) (*models.DocumentPage, error)
	ListByOrganization(ctx context.Context, requester *models.User, orgID string, q models.ListQuery) (*models.DocumentPage, error)
	Search(ctx context.Context, requester *models.User, q models.SearchQuery) (*models.DocumentPage, error)
	Recent(ctx context.Context, requester *models.User, limit int) ([]*models.Document, error)
	CountByStatus(ctx context.Context, requester *models.User) (map[models.Status]int, error)
}

type DocumentUpdater interface {
	UpdateDocument(ctx context.Context, docID string, requester *models.User, upd models.DocumentUpdate) (*models.Document, error)
}

type DocumentDeleter interface {
	DeleteDocument(ctx context.Context, docID string, requester *models.User) error
}
