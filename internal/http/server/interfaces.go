package server

import (
	"context"
	"docauth/internal/models"
	"io"
	"net/http"
	"time"
)

type AuthService interface {
	Register(ctx context.Context, login, password, organizationID, token string) (string, error)
	Login(ctx context.Context, login string, password string) (string, error)
	UserByToken(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

type DocumentService interface {
	UploadDocument(ctx context.Context, requester *models.User, doc *models.Document, file *models.FileUpload) (*models.Document, error)
	DocumentByID(ctx context.Context, docID string, requester *models.User) (*models.Document, error)
	DocumentFile(ctx context.Context, docID string, requester *models.User) (*models.Document, io.ReadCloser, error)
	ListDocuments(ctx context.Context, requester *models.User, q models.ListQuery) (*models.DocumentPage, error)
	ListByOrganization(ctx context.Context, requester *models.User, orgID string, q models.ListQuery) (*models.DocumentPage, error)
	Search(ctx context.Context, requester *models.User, q models.SearchQuery) (*models.DocumentPage, error)
	Recent(ctx context.Context, requester *models.User, limit int) ([]*models.Document, error)
	CountByStatus(ctx context.Context, requester *models.User) (map[models.Status]int, error)
	UpdateDocument(ctx context.Context, docID string, requester *models.User, upd models.DocumentUpdate) (*models.Document, error)
	DeleteDocument(ctx context.Context, docID string, requester *models.User) error
}

type VerificationService interface {
	SubmitForVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error)
	InitiateReVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error)
	ChangeStatus(ctx context.Context, docID, orgID string, actor *models.User, newStatus models.Status) (*models.Document, error)
	GrantAccess(ctx context.Context, docID, orgID, actorID string) error
	RevokeAccess(ctx context.Context, docID, orgID, actorID string) error
	CompositeStatus(ctx context.Context, docID string, requester *models.User) (*models.CompositeStatus, error)
}

type Metrics interface {
	Handler() http.Handler
	ObserveHTTP(method, route string, code int, start time.Time)
}
