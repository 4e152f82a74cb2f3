package lifecycle

import "docauth/internal/models"

// Resolve derives the overall document status from the per-organization
// statuses. Only the set of values present is consulted, so the result does
// not depend on map iteration order.
//
// Precedence, highest first: REVOKED, UNDER_DISPUTE, EXPIRED,
// CHANGES_REQUESTED, UNDER_REVIEW (also for IN_QUEUE), all REJECTED,
// all VERIFIED, any SUBMITTED. Mixtures not covered by those rules fall back to
// PENDING_RENEWAL, then REJECTED, then PENDING_DELETION, then ARCHIVED. An
// empty map is DRAFT.
func Resolve(statuses map[string]models.Status) models.Status {
	if len(statuses) == 0 {
		return models.StatusDraft
	}

	present := make(map[models.Status]int, len(statuses))
	for _, s := range statuses {
		present[s]++
	}

	has := func(s models.Status) bool {
		return present[s] > 0
	}
	all := func(s models.Status) bool {
		return present[s] == len(statuses)
	}

	switch {
	case has(models.StatusRevoked):
		return models.StatusRevoked
	case has(models.StatusUnderDispute):
		return models.StatusUnderDispute
	case has(models.StatusExpired):
		return models.StatusExpired
	case has(models.StatusChangesRequested):
		return models.StatusChangesRequested
	case has(models.StatusUnderReview), has(models.StatusInQueue):
		return models.StatusUnderReview
	case all(models.StatusRejected):
		return models.StatusRejected
	case all(models.StatusVerified):
		return models.StatusVerified
	case has(models.StatusSubmitted):
		return models.StatusSubmitted
	case has(models.StatusPendingRenewal):
		return models.StatusPendingRenewal
	case has(models.StatusRejected):
		return models.StatusRejected
	case has(models.StatusPendingDeletion):
		return models.StatusPendingDeletion
	case has(models.StatusArchived):
		return models.StatusArchived
	}

	return models.StatusDraft
}
