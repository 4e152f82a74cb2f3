package lifecycle

import (
	"docauth/internal/models"
	"fmt"
	"slices"
	"time"
)

// Grant adds orgID to the document's access list, keeping the list sorted.
// It reports false when the organization already had access.
func Grant(doc *models.Document, orgID string) bool {
	pos, found := slices.BinarySearch(doc.OrganizationsWithAccess, orgID)
	if found {
		return false
	}

	doc.OrganizationsWithAccess = slices.Insert(doc.OrganizationsWithAccess, pos, orgID)
	return true
}

// Revoke removes orgID from the access list together with its status entry.
// previous is the status the organization held, if any.
func Revoke(doc *models.Document, orgID string) (previous models.Status, removed bool) {
	pos, found := slices.BinarySearch(doc.OrganizationsWithAccess, orgID)
	if found {
		doc.OrganizationsWithAccess = slices.Delete(doc.OrganizationsWithAccess, pos, pos+1)
	}

	previous, hadStatus := doc.VerificationStatuses[orgID]
	delete(doc.VerificationStatuses, orgID)

	return previous, found || hadStatus
}

// Apply runs event for orgID against doc. The organization must already hold
// access; its absent status entry counts as DRAFT.
func Apply(doc *models.Document, orgID string, event Event, now time.Time) (models.Status, error) {
	if !doc.HasAccess(orgID) {
		return "", fmt.Errorf("organization %s: %w", orgID, models.ErrForbidden)
	}

	current := CurrentStatus(doc, orgID)

	next, err := Transition(current, event)
	if err != nil {
		return current, err
	}

	setStatus(doc, orgID, next, now)
	return next, nil
}

// ApplyTarget is Apply for a requested target status.
func ApplyTarget(doc *models.Document, orgID string, target models.Status, now time.Time) (models.Status, error) {
	if !doc.HasAccess(orgID) {
		return "", fmt.Errorf("organization %s: %w", orgID, models.ErrForbidden)
	}

	current := CurrentStatus(doc, orgID)

	next, err := TransitionTo(current, target)
	if err != nil {
		return current, err
	}

	setStatus(doc, orgID, next, now)
	return next, nil
}

func CurrentStatus(doc *models.Document, orgID string) models.Status {
	if s, ok := doc.VerificationStatuses[orgID]; ok {
		return s
	}
	return models.StatusDraft
}

func setStatus(doc *models.Document, orgID string, next models.Status, now time.Time) {
	if doc.VerificationStatuses == nil {
		doc.VerificationStatuses = make(map[string]models.Status)
	}
	doc.VerificationStatuses[orgID] = next

	switch next {
	case models.StatusSubmitted:
		doc.SubmittedAt = &now
	case models.StatusVerified:
		doc.LastVerifiedAt = &now
	}
}

// CheckAccessInvariant fails when an organization has a status entry but no
// access grant.
func CheckAccessInvariant(doc *models.Document) error {
	for orgID := range doc.VerificationStatuses {
		if !doc.HasAccess(orgID) {
			return fmt.Errorf("organization %s has a status without access", orgID)
		}
	}
	return nil
}
