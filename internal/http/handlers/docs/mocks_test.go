package docs

import (
	"context"
	"docauth/internal/models"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"
)

type mockDocProvider struct {
	mock.Mock
}

func (m *mockDocProvider) DocumentByID(ctx context.Context, docID string, requester *models.User) (*models.Document, error) {
	args := m.Called(ctx, docID, requester)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockDocProvider) DocumentFile(ctx context.Context, docID string, requester *models.User) (*models.Document, io.ReadCloser, error) {
	args := m.Called(ctx, docID, requester)
	doc, _ := args.Get(0).(*models.Document)
	file, _ := args.Get(1).(io.ReadCloser)
	return doc, file, args.Error(2)
}

func (m *mockDocProvider) ListDocuments(ctx context.Context, requester *models.User, q models.ListQuery) (*models.DocumentPage, error) {
	args := m.Called(ctx, requester, q)
	page, _ := args.Get(0).(*models.DocumentPage)
	return page, args.Error(1)
}

func (m *mockDocProvider) ListByOrganization(ctx context.Context, requester *models.User, orgID string, q models.ListQuery) (*models.DocumentPage, error) {
	args := m.Called(ctx, requester, orgID, q)
	page, _ := args.Get(0).(*models.DocumentPage)
	return page, args.Error(1)
}

func (m *mockDocProvider) Search(ctx context.Context, requester *models.User, q models.SearchQuery) (*models.DocumentPage, error) {
	args := m.Called(ctx, requester, q)
	page, _ := args.Get(0).(*models.DocumentPage)
	return page, args.Error(1)
}

func (m *mockDocProvider) Recent(ctx context.Context, requester *models.User, limit int) ([]*models.Document, error) {
	args := m.Called(ctx, requester, limit)
	docs, _ := args.Get(0).([]*models.Document)
	return docs, args.Error(1)
}

func (m *mockDocProvider) CountByStatus(ctx context.Context, requester *models.User) (map[models.Status]int, error) {
	args := m.Called(ctx, requester)
	counts, _ := args.Get(0).(map[models.Status]int)
	return counts, args.Error(1)
}

type mockDocUploader struct {
	mock.Mock
}

func (m *mockDocUploader) UploadDocument(ctx context.Context, requester *models.User, doc *models.Document, file *models.FileUpload) (*models.Document, error) {
	args := m.Called(ctx, requester, doc, file)
	created, _ := args.Get(0).(*models.Document)
	return created, args.Error(1)
}

type mockDocUpdater struct {
	mock.Mock
}

func (m *mockDocUpdater) UpdateDocument(ctx context.Context, docID string, requester *models.User, upd models.DocumentUpdate) (*models.Document, error) {
	args := m.Called(ctx, docID, requester, upd)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

type mockDocDeleter struct {
	mock.Mock
}

func (m *mockDocDeleter) DeleteDocument(ctx context.Context, docID string, requester *models.User) error {
	args := m.Called(ctx, docID, requester)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUser() *models.User {
	return &models.User{ID: "user1", Login: "ownerlogin"}
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, models.UserContextKey, user)
}

func testDocument() *models.Document {
	return &models.Document{
		ID:                      "doc1",
		OwnerID:                 "user1",
		Title:                   "Passport",
		FileRef:                 "doc1/passport.pdf",
		FileHash:                "abc123",
		FileSize:                4,
		Mime:                    "application/pdf",
		OverallStatus:           models.StatusUnderReview,
		VerificationStatuses:    map[string]models.Status{"org-a": models.StatusUnderReview},
		OrganizationsWithAccess: []string{"org-a"},
		Version:                 3,
	}
}
