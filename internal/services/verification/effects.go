package verificationservice

import (
	"docauth/internal/models"
	"fmt"
	"time"
)

// effects collects what a committed mutation has to tell the outside world.
type effects struct {
	audits        []models.AuditEntry
	notifications []models.Notification
	transitions   []models.Status
}

func (fx *effects) audit(doc *models.Document, action models.AuditAction, actorID string, now time.Time, metadata map[string]any) {
	fx.audits = append(fx.audits, models.AuditEntry{
		EntityType: models.AuditEntityDocument,
		EntityID:   doc.ID,
		Action:     action,
		ActorID:    actorID,
		Metadata:   metadata,
		Timestamp:  now,
	})
}

// privileged records an audit entry that reviewers must be able to single out.
func (fx *effects) privileged(doc *models.Document, action models.AuditAction, actorID string, now time.Time, metadata map[string]any) {
	fx.audit(doc, action, actorID, now, metadata)
	fx.audits[len(fx.audits)-1].Privileged = true
}

func (fx *effects) notifyOwner(doc *models.Document, content models.NotificationContent, priority models.NotificationPriority, now time.Time, format string, args ...any) {
	fx.notify(doc, doc.OwnerID, models.TargetUser, content, priority, now, format, args...)
}

func (fx *effects) notifyOrganization(doc *models.Document, orgID string, content models.NotificationContent, priority models.NotificationPriority, now time.Time, format string, args ...any) {
	fx.notify(doc, orgID, models.TargetOrganization, content, priority, now, format, args...)
}

func (fx *effects) notify(
	doc *models.Document,
	targetID string,
	kind models.NotificationTarget,
	content models.NotificationContent,
	priority models.NotificationPriority,
	now time.Time,
	format string,
	args ...any,
) {
	fx.notifications = append(fx.notifications, models.Notification{
		TargetID:    targetID,
		TargetKind:  kind,
		ContentType: content,
		Message:     fmt.Sprintf(format, args...),
		Priority:    priority,
		DocumentID:  doc.ID,
		CreatedAt:   now,
	})
}

func (fx *effects) transition(to models.Status) {
	fx.transitions = append(fx.transitions, to)
}

func (fx *effects) outboxEvents(newID func() string) ([]models.OutboxEvent, error) {
	events := make([]models.OutboxEvent, 0, len(fx.audits)+len(fx.notifications))

	for _, a := range fx.audits {
		ev, err := models.NewAuditEvent(newID(), a)
		if err != nil {
			return nil, fmt.Errorf("audit event: %w", err)
		}
		events = append(events, ev)
	}

	for _, n := range fx.notifications {
		ev, err := models.NewNotificationEvent(newID(), n)
		if err != nil {
			return nil, fmt.Errorf("notification event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}
