// Package lifecycle holds the pure rules of the document verification
// lifecycle: per-organization transitions, the composite status of a document
// and the access-list operations that keep both consistent. Nothing here
// performs I/O.
package lifecycle

import (
	"docauth/internal/models"
)

type Event string

const (
	EventSubmit         Event = "submit"
	EventEnqueue        Event = "enqueue"
	EventStartReview    Event = "start_review"
	EventVerify         Event = "verify"
	EventReject         Event = "reject"
	EventRequestChanges Event = "request_changes"
	EventDispute        Event = "dispute"
	EventRevoke         Event = "revoke"
	EventRequestRenewal Event = "request_renewal"
	EventExpire         Event = "expire"
	EventReVerify       Event = "reverify"
)

// AllEvents lists every event the engine understands.
var AllEvents = []Event{
	EventSubmit,
	EventEnqueue,
	EventStartReview,
	EventVerify,
	EventReject,
	EventRequestChanges,
	EventDispute,
	EventRevoke,
	EventRequestRenewal,
	EventExpire,
	EventReVerify,
}

type edge struct {
	from  models.Status
	event Event
}

var edges = map[edge]models.Status{
	{models.StatusDraft, EventSubmit}:            models.StatusSubmitted,
	{models.StatusChangesRequested, EventSubmit}: models.StatusSubmitted,

	{models.StatusSubmitted, EventEnqueue}:   models.StatusInQueue,
	{models.StatusInQueue, EventStartReview}: models.StatusUnderReview,

	{models.StatusUnderReview, EventVerify}:         models.StatusVerified,
	{models.StatusUnderReview, EventReject}:         models.StatusRejected,
	{models.StatusUnderReview, EventRequestChanges}: models.StatusChangesRequested,
	{models.StatusUnderReview, EventDispute}:        models.StatusUnderDispute,

	{models.StatusVerified, EventRevoke}:         models.StatusRevoked,
	{models.StatusVerified, EventRequestRenewal}: models.StatusPendingRenewal,
}

// Transition returns the per-organization status that results from applying
// event to current. Unknown pairs yield a *models.TransitionError and the
// unchanged current status.
func Transition(current models.Status, event Event) (models.Status, error) {
	switch event {
	case EventReVerify:
		return models.StatusSubmitted, nil
	case EventExpire:
		if current.IsTerminal() {
			return current, &models.TransitionError{Current: current, Event: string(event)}
		}
		return models.StatusExpired, nil
	}

	next, ok := edges[edge{from: current, event: event}]
	if !ok {
		return current, &models.TransitionError{Current: current, Event: string(event)}
	}

	return next, nil
}

var targetEvents = map[models.Status]Event{
	models.StatusSubmitted:        EventSubmit,
	models.StatusInQueue:          EventEnqueue,
	models.StatusUnderReview:      EventStartReview,
	models.StatusVerified:         EventVerify,
	models.StatusRejected:         EventReject,
	models.StatusChangesRequested: EventRequestChanges,
	models.StatusUnderDispute:     EventDispute,
	models.StatusRevoked:          EventRevoke,
	models.StatusPendingRenewal:   EventRequestRenewal,
	models.StatusExpired:          EventExpire,
}

// EventForTarget maps a requested target status onto the event that reaches
// it. DRAFT, ARCHIVED and PENDING_DELETION are never reachable on request.
func EventForTarget(target models.Status) (Event, bool) {
	event, ok := targetEvents[target]
	return event, ok
}

// TransitionTo applies the event that leads to target.
func TransitionTo(current, target models.Status) (models.Status, error) {
	event, ok := EventForTarget(target)
	if !ok {
		return current, &models.TransitionError{Current: current, Target: target, Event: "set_" + string(target)}
	}

	next, err := Transition(current, event)
	if err != nil {
		return current, &models.TransitionError{Current: current, Target: target, Event: string(event)}
	}

	return next, nil
}
