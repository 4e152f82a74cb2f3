package outboxservice

import (
	"context"
	"docauth/internal/metrics"
	"docauth/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const pkg = "outboxService/"

const (
	defaultConsumer      = "docauth-dispatcher"
	defaultPollInterval  = 2 * time.Second
	defaultLeaseTTL      = 30 * time.Second
	defaultBatchSize     = 50
	defaultMaxAttempts   = 8
	defaultRetryBackoff  = time.Second
	defaultRetryMaxDelay = 5 * time.Minute
)

var errUnknownKind = errors.New("unknown outbox event kind")

type Config struct {
	Consumer      string
	PollInterval  time.Duration
	LeaseTTL      time.Duration
	BatchSize     int
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
}

func (c Config) normalized() Config {
	if c.Consumer == "" {
		c.Consumer = defaultConsumer
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = defaultLeaseTTL
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay < c.RetryBackoff {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	return c
}

// Dispatcher delivers committed audit entries and notifications to their
// sinks. Delivery is at least once: an event is acknowledged only after its
// sink accepted it, and a failed delivery never touches document state.
type Dispatcher struct {
	log           *slog.Logger
	store         Store
	audits        AuditSink
	notifications NotificationSink
	metrics       *metrics.Metrics
	cfg           Config
	now           func() time.Time
}

func New(
	log *slog.Logger,
	cfg Config,
	store Store,
	audits AuditSink,
	notifications NotificationSink,
	m *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		log:           log,
		store:         store,
		audits:        audits,
		notifications: notifications,
		metrics:       m,
		cfg:           cfg.normalized(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// DispatchOnce leases one batch and tries to deliver every event in it. It
// returns the number of delivered events.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	op := pkg + "DispatchOnce"

	log := d.log.With(slog.String("op", op))

	events, err := d.store.Lease(ctx, d.cfg.Consumer, d.cfg.BatchSize, d.now(), d.cfg.LeaseTTL)
	if err != nil {
		log.Error("failed to lease outbox events", slog.String("error", err.Error()))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	delivered := 0
	for _, ev := range events {
		if err := d.deliver(ctx, ev); err != nil {
			d.fail(ctx, log, ev, err)
			continue
		}

		if err := d.store.Ack(ctx, ev.ID, d.now()); err != nil {
			// The lease runs out and the event is delivered again.
			log.Error("failed to ack outbox event", slog.String("event_id", ev.ID), slog.String("error", err.Error()))
			continue
		}

		d.metrics.IncOutboxDelivered(string(ev.Kind))
		delivered++
	}

	if len(events) > 0 {
		log.Debug("outbox batch dispatched", slog.Int("leased", len(events)), slog.Int("delivered", delivered))
	}

	return delivered, nil
}

func (d *Dispatcher) deliver(ctx context.Context, ev models.OutboxEvent) error {
	switch ev.Kind {
	case models.OutboxAudit:
		var entry models.AuditEntry
		if err := json.Unmarshal(ev.Payload, &entry); err != nil {
			return fmt.Errorf("decode audit entry: %w", err)
		}
		return d.audits.Record(ctx, entry)
	case models.OutboxNotification:
		var n models.Notification
		if err := json.Unmarshal(ev.Payload, &n); err != nil {
			return fmt.Errorf("decode notification: %w", err)
		}
		return d.notifications.Notify(ctx, n)
	}

	return fmt.Errorf("%w: %s", errUnknownKind, ev.Kind)
}

func (d *Dispatcher) fail(ctx context.Context, log *slog.Logger, ev models.OutboxEvent, cause error) {
	attempt := ev.AttemptCount + 1
	dead := attempt >= d.cfg.MaxAttempts || errors.Is(cause, errUnknownKind)
	next := d.now().Add(d.retryDelay(attempt))

	log = log.With(
		slog.String("event_id", ev.ID),
		slog.String("kind", string(ev.Kind)),
		slog.String("event_type", ev.EventType),
		slog.Int("attempt", attempt),
		slog.String("error", cause.Error()),
	)

	if dead {
		log.Error("outbox event dead-lettered")
	} else {
		log.Warn("outbox delivery failed", slog.Time("next_attempt_at", next))
	}

	d.metrics.IncOutboxFailed(string(ev.Kind), dead)

	if err := d.store.Fail(ctx, ev.ID, cause.Error(), next, dead); err != nil {
		log.Error("failed to record outbox failure", slog.String("store_error", err.Error()))
	}
}

// retryDelay doubles the base delay per attempt up to the configured cap.
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = d.cfg.RetryBackoff
	exp.MaxInterval = d.cfg.RetryMaxDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()

	delay := exp.NextBackOff()
	for i := 1; i < attempt; i++ {
		delay = exp.NextBackOff()
	}
	return delay
}

// Run polls the outbox until ctx is done. A full batch is followed by another
// poll right away.
func (d *Dispatcher) Run(ctx context.Context) error {
	op := pkg + "Run"

	log := d.log.With(slog.String("op", op))

	log.Info("outbox dispatcher started", slog.String("consumer", d.cfg.Consumer))

	for {
		n, err := d.DispatchOnce(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error("dispatch failed", slog.String("error", err.Error()))
		}

		wait := d.cfg.PollInterval
		if err == nil && n == d.cfg.BatchSize {
			wait = 0
		}

		select {
		case <-ctx.Done():
			log.Info("outbox dispatcher stopped")
			return nil
		case <-time.After(wait):
		}
	}
}
