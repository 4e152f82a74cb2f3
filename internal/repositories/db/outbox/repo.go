package outboxrepo

import (
	"context"
	"docauth/internal/dbs/postgres"
	"docauth/internal/entities"
	"docauth/internal/models"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const pkg = "outboxRepo/"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *repository {
	return &repository{db: db}
}

// Enqueue inserts events. Called inside the commit transaction of the state
// change that produced them.
func (r *repository) Enqueue(ctx context.Context, events ...models.OutboxEvent) error {
	op := pkg + "Enqueue"

	conn := postgres.Conn(ctx, r.db)

	for _, e := range events {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO outbox (id, kind, aggregate_id, event_type, payload, status, attempt_count, next_attempt_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			e.ID, string(e.Kind), e.AggregateID, e.EventType, e.Payload, string(models.OutboxPending),
			e.AttemptCount, e.NextAttemptAt, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// Lease claims up to limit due events for consumer. Events whose lease
// expired are claimable again.
func (r *repository) Lease(ctx context.Context, consumer string, limit int, now time.Time, leaseTTL time.Duration) ([]models.OutboxEvent, error) {
	op := pkg + "Lease"

	rows := make([]entities.OutboxEvent, 0)

	err := postgres.Conn(ctx, r.db).SelectContext(ctx, &rows,
		`UPDATE outbox SET
			status = 'leased',
			lease_owner = $1,
			lease_expires_at = $2
		WHERE id IN (
			SELECT o.id FROM outbox o
			WHERE (o.status = 'pending' AND o.next_attempt_at <= $3)
				OR (o.status = 'leased' AND o.lease_expires_at <= $3)
			ORDER BY o.next_attempt_at, o.created_at, o.id
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, aggregate_id, event_type, payload, status, attempt_count,
			next_attempt_at, last_error, created_at, lease_owner, lease_expires_at`,
		consumer, now.Add(leaseTTL), now, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	events := make([]models.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, toModel(row))
	}

	return events, nil
}

func (r *repository) Ack(ctx context.Context, id string, now time.Time) error {
	op := pkg + "Ack"

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET
			status = 'delivered',
			processed_at = $2,
			lease_owner = NULL,
			lease_expires_at = NULL
		WHERE id = $1`,
		id, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Fail records a delivery failure. The event is retried at nextAttemptAt, or
// parked as dead when dead is set.
func (r *repository) Fail(ctx context.Context, id string, cause string, nextAttemptAt time.Time, dead bool) error {
	op := pkg + "Fail"

	status := models.OutboxPending
	if dead {
		status = models.OutboxDead
	}

	_, err := postgres.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE outbox SET
			status = $2,
			attempt_count = attempt_count + 1,
			next_attempt_at = $3,
			last_error = $4,
			lease_owner = NULL,
			lease_expires_at = NULL
		WHERE id = $1`,
		id, string(status), nextAttemptAt, cause)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toModel(row entities.OutboxEvent) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            row.ID,
		Kind:          models.OutboxKind(row.Kind),
		AggregateID:   row.AggregateID,
		EventType:     row.EventType,
		Payload:       row.Payload,
		Status:        models.OutboxStatus(row.Status),
		AttemptCount:  row.AttemptCount,
		NextAttemptAt: row.NextAttemptAt,
		LastError:     row.LastError,
		CreatedAt:     row.CreatedAt,
	}
}
