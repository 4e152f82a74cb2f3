package outboxservice

import (
	"context"
	"docauth/internal/models"
	"time"
)

type Store interface {
	Lease(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]models.OutboxEvent, error)
	Ack(ctx context.Context, id string, now time.Time) error
	Fail(ctx context.Context, id string, cause string, nextAttemptAt time.Time, dead bool) error
}

type AuditSink interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

type NotificationSink interface {
	Notify(ctx context.Context, n models.Notification) error
}
