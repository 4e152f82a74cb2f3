package models

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditUploadDocument       AuditAction = "UPLOAD_DOCUMENT"
	AuditUpdateDocument       AuditAction = "UPDATE_DOCUMENT"
	AuditDeleteDocument       AuditAction = "DELETE_DOCUMENT"
	AuditSubmittedForReview   AuditAction = "DOCUMENT_SUBMITTED_FOR_VERIFICATION"
	AuditStatusChanged        AuditAction = "DOCUMENT_STATUS_CHANGED"
	AuditGrantAccess          AuditAction = "GRANT_DOCUMENT_ACCESS"
	AuditRevokeAccess         AuditAction = "REVOKE_DOCUMENT_ACCESS"
	AuditInitiateVerification AuditAction = "INITIATE_VERIFICATION"
	AuditDocumentExpired      AuditAction = "DOCUMENT_EXPIRED"
)

const (
	AuditEntityDocument = "Document"
	SystemActor         = "system"
)

type AuditEntry struct {
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     AuditAction    `json:"action"`
	ActorID    string         `json:"actor_id"`
	Privileged bool           `json:"privileged,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

type NotificationPriority string

const (
	PriorityNormal NotificationPriority = "NORMAL"
	PriorityHigh   NotificationPriority = "HIGH"
)

type NotificationTarget string

const (
	TargetUser         NotificationTarget = "user"
	TargetOrganization NotificationTarget = "organization"
)

type NotificationContent string

const (
	ContentDocumentUploaded      NotificationContent = "DOCUMENT_UPLOADED"
	ContentVerificationRequested NotificationContent = "DOCUMENT_VERIFICATION_REQUESTED"
	ContentStatusUpdated         NotificationContent = "DOCUMENT_STATUS_UPDATED"
	ContentAccessGranted         NotificationContent = "DOCUMENT_ACCESS_GRANTED"
	ContentAccessRevoked         NotificationContent = "DOCUMENT_ACCESS_REVOKED"
	ContentDocumentExpired       NotificationContent = "DOCUMENT_EXPIRED"
)

type Notification struct {
	TargetID    string               `json:"target_id"`
	TargetKind  NotificationTarget   `json:"target_kind"`
	ContentType NotificationContent  `json:"content_type"`
	Message     string               `json:"message"`
	Priority    NotificationPriority `json:"priority"`
	DocumentID  string               `json:"document_id"`
	CreatedAt   time.Time            `json:"created_at"`
}

type OutboxKind string

const (
	OutboxAudit        OutboxKind = "audit"
	OutboxNotification OutboxKind = "notification"
)

type OutboxStatus string

const (
	OutboxPending   OutboxStatus = "pending"
	OutboxLeased    OutboxStatus = "leased"
	OutboxDelivered OutboxStatus = "delivered"
	OutboxDead      OutboxStatus = "dead"
)

// OutboxEvent is a side effect recorded in the same transaction as the state
// change that produced it.
type OutboxEvent struct {
	ID            string
	Kind          OutboxKind
	AggregateID   string
	EventType     string
	Payload       []byte
	Status        OutboxStatus
	AttemptCount  int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
}

func NewAuditEvent(id string, entry AuditEntry) (OutboxEvent, error) {
	payload, err := json.Marshal(entry)
	if err != nil {
		return OutboxEvent{}, err
	}

	return OutboxEvent{
		ID:            id,
		Kind:          OutboxAudit,
		AggregateID:   entry.EntityID,
		EventType:     string(entry.Action),
		Payload:       payload,
		Status:        OutboxPending,
		NextAttemptAt: entry.Timestamp,
		CreatedAt:     entry.Timestamp,
	}, nil
}

func NewNotificationEvent(id string, n Notification) (OutboxEvent, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return OutboxEvent{}, err
	}

	return OutboxEvent{
		ID:            id,
		Kind:          OutboxNotification,
		AggregateID:   n.DocumentID,
		EventType:     string(n.ContentType),
		Payload:       payload,
		Status:        OutboxPending,
		NextAttemptAt: n.CreatedAt,
		CreatedAt:     n.CreatedAt,
	}, nil
}
