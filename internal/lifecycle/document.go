package lifecycle

import (
	"docauth/internal/models"
	"time"
)

// Overall is the status a document presents: ARCHIVED once archived,
// otherwise the resolved per-organization statuses. A document without any
// organization entries that the sweeper expired reads as EXPIRED.
func Overall(doc *models.Document) models.Status {
	if doc.ArchivedAt != nil {
		return models.StatusArchived
	}

	s := Resolve(doc.VerificationStatuses)
	if s == models.StatusDraft && doc.ExpiredAt != nil {
		return models.StatusExpired
	}

	return s
}

// Recompute refreshes doc.OverallStatus and stamps RevokedAt when the
// document becomes REVOKED.
func Recompute(doc *models.Document, now time.Time) {
	prev := doc.OverallStatus
	doc.OverallStatus = Overall(doc)

	if doc.OverallStatus == models.StatusRevoked && prev != models.StatusRevoked {
		doc.RevokedAt = &now
	}
}

// Expire moves every non-terminal organization status to EXPIRED. It reports
// whether anything changed.
func Expire(doc *models.Document, now time.Time) bool {
	changed := false

	for orgID, s := range doc.VerificationStatuses {
		if s.IsTerminal() || s == models.StatusExpired {
			continue
		}
		doc.VerificationStatuses[orgID] = models.StatusExpired
		changed = true
	}

	if doc.ExpiredAt == nil {
		doc.ExpiredAt = &now
		changed = true
	}

	return changed
}

// IsOverdue reports whether doc has passed its expiry date while still in a
// state the sweeper must act on.
func IsOverdue(doc *models.Document, now time.Time) bool {
	if doc.ExpiryDate == nil || doc.ExpiryDate.After(now) || doc.ArchivedAt != nil {
		return false
	}

	s := Overall(doc)
	return !s.IsTerminal() && s != models.StatusExpired
}

// Archive stamps the document as archived. Archiving twice keeps the first
// stamp.
func Archive(doc *models.Document, now time.Time) bool {
	if doc.ArchivedAt != nil {
		return false
	}
	doc.ArchivedAt = &now
	return true
}
