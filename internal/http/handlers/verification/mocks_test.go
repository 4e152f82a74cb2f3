package verification

import (
	"context"
	"docauth/internal/models"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) SubmitForVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error) {
	args := m.Called(ctx, docID, ownerID, orgIDs)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *mockSubmitter) InitiateReVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error) {
	args := m.Called(ctx, docID, ownerID, orgIDs)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

type mockStatusChanger struct {
	mock.Mock
}

func (m *mockStatusChanger) ChangeStatus(ctx context.Context, docID, orgID string, actor *models.User, newStatus models.Status) (*models.Document, error) {
	args := m.Called(ctx, docID, orgID, actor, newStatus)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

type mockAccessManager struct {
	mock.Mock
}

func (m *mockAccessManager) GrantAccess(ctx context.Context, docID, orgID, actorID string) error {
	return m.Called(ctx, docID, orgID, actorID).Error(0)
}

func (m *mockAccessManager) RevokeAccess(ctx context.Context, docID, orgID, actorID string) error {
	return m.Called(ctx, docID, orgID, actorID).Error(0)
}

type mockCompositeProvider struct {
	mock.Mock
}

func (m *mockCompositeProvider) CompositeStatus(ctx context.Context, docID string, requester *models.User) (*models.CompositeStatus, error) {
	args := m.Called(ctx, docID, requester)
	cs, _ := args.Get(0).(*models.CompositeStatus)
	return cs, args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func owner() *models.User {
	return &models.User{ID: "owner-1", Login: "owner"}
}

func reviewer() *models.User {
	return &models.User{ID: "rev-1", Login: "reviewer", OrganizationID: "org-a"}
}

func withUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, models.UserContextKey, user)
}

func submittedDocument() *models.Document {
	return &models.Document{
		ID:                      "doc1",
		OwnerID:                 "owner-1",
		Title:                   "Passport",
		OverallStatus:           models.StatusSubmitted,
		VerificationStatuses:    map[string]models.Status{"org-a": models.StatusSubmitted},
		OrganizationsWithAccess: []string{"org-a"},
		Version:                 2,
	}
}
