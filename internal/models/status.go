package models

type Status string

const (
	StatusDraft            Status = "DRAFT"
	StatusSubmitted        Status = "SUBMITTED"
	StatusInQueue          Status = "IN_QUEUE"
	StatusUnderReview      Status = "UNDER_REVIEW"
	StatusChangesRequested Status = "CHANGES_REQUESTED"
	StatusVerified         Status = "VERIFIED"
	StatusRejected         Status = "REJECTED"
	StatusRevoked          Status = "REVOKED"
	StatusExpired          Status = "EXPIRED"
	StatusPendingRenewal   Status = "PENDING_RENEWAL"
	StatusUnderDispute     Status = "UNDER_DISPUTE"
	StatusArchived         Status = "ARCHIVED"
	StatusPendingDeletion  Status = "PENDING_DELETION"
)

// AllStatuses lists every lifecycle state in declaration order.
var AllStatuses = []Status{
	StatusDraft,
	StatusSubmitted,
	StatusInQueue,
	StatusUnderReview,
	StatusChangesRequested,
	StatusVerified,
	StatusRejected,
	StatusRevoked,
	StatusExpired,
	StatusPendingRenewal,
	StatusUnderDispute,
	StatusArchived,
	StatusPendingDeletion,
}

func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outbound transitions other than an
// explicit re-verification.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusRevoked, StatusArchived, StatusPendingDeletion:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
