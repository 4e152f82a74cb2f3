package verification

import (
	"context"
	"docauth/internal/models"
)

const pkg = "verificationHandler/"

type Submitter interface {
	SubmitForVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error)
	InitiateReVerification(ctx context.Context, docID, ownerID string, orgIDs []string) (*models.Document, error)
}

type StatusChanger interface {
	ChangeStatus(ctx context.Context, docID, orgID string, actor *models.User, newStatus models.Status) (*models.Document, error)
}

type AccessManager interface {
	GrantAccess(ctx context.Context, docID, orgID, actorID string) error
	RevokeAccess(ctx context.Context, docID, orgID, actorID string) error
}

type CompositeStatusProvider interface {
	CompositeStatus(ctx context.Context, docID string, requester *models.User) (*models.CompositeStatus, error)
}
