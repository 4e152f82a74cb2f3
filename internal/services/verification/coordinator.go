package verificationservice

import (
	"context"
	"docauth/internal/lifecycle"
	"docauth/internal/metrics"
	"docauth/internal/models"
	"docauth/internal/tracing"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	uuid "github.com/satori/go.uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const pkg = "verificationService/"

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 10 * time.Millisecond
)

// errNoChange aborts a mutation that would leave the document as it is.
// Nothing is written and no side effects are emitted.
var errNoChange = errors.New("no change")

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Coordinator orchestrates every mutation of a document's verification
// state. Each mutation re-reads the document, applies lifecycle rules in
// memory and commits with a version check, retrying on conflict.
type Coordinator struct {
	log     *slog.Logger
	docs    DocumentStore
	ledger  AccessLedger
	outbox  Outbox
	tx      Transactor
	cache   CacheInvalidator
	metrics *metrics.Metrics
	tracer  trace.Tracer

	maxAttempts int
	baseDelay   time.Duration

	now   func() time.Time
	newID func() string
}

func New(
	log *slog.Logger,
	cfg Config,
	docs DocumentStore,
	ledger AccessLedger,
	outbox Outbox,
	tx Transactor,
	cache CacheInvalidator,
	m *metrics.Metrics,
) *Coordinator {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}

	return &Coordinator{
		log:         log,
		docs:        docs,
		ledger:      ledger,
		outbox:      outbox,
		tx:          tx,
		cache:       cache,
		metrics:     m,
		tracer:      tracing.Tracer(),
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewV4().String() },
	}
}

// mutation changes doc in place and records the side effects of the change.
type mutation func(doc *models.Document, now time.Time, fx *effects) error

// commit runs mutate against the latest stored version of docID until the
// conditional write succeeds or the attempts run out. It reports whether
// anything was written.
func (c *Coordinator) commit(ctx context.Context, op, docID string, mutate mutation) (*models.Document, bool, error) {
	log := c.log.With(slog.String("op", op), slog.String("doc_id", docID))

	var (
		before  *models.Document
		result  *models.Document
		fx      *effects
		attempt int
	)

	try := func() error {
		attempt++

		current, err := c.docs.DocumentByID(ctx, docID)
		if err != nil {
			return backoff.Permanent(err)
		}

		doc := current.Clone()
		now := c.now()
		pending := &effects{}

		if err := mutate(doc, now, pending); err != nil {
			if errors.Is(err, errNoChange) {
				before, result, fx = current, current, nil
				return nil
			}
			return backoff.Permanent(err)
		}

		lifecycle.Recompute(doc, now)
		doc.UpdatedAt = now

		err = c.tx.InTx(ctx, func(ctx context.Context) error {
			return c.persist(ctx, current, doc, pending)
		})
		if err != nil {
			if errors.Is(err, models.ErrVersionConflict) {
				c.metrics.IncVersionConflict(op)
				log.Debug("version conflict", slog.Int("attempt", attempt), slog.Int64("expected", current.Version))
				return err
			}
			return backoff.Permanent(err)
		}

		before, result, fx = current, doc, pending
		return nil
	}

	err := backoff.Retry(try, backoff.WithContext(c.retryPolicy(), ctx))
	if err != nil {
		return nil, false, c.mapError(log, op, attempt, err)
	}

	if fx == nil {
		log.Debug("nothing to change")
		return result, false, nil
	}

	c.afterCommit(ctx, log, before, result, fx)

	return result, true, nil
}

func (c *Coordinator) retryPolicy() backoff.BackOff {
	if c.maxAttempts <= 1 {
		return &backoff.StopBackOff{}
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseDelay
	exp.MaxElapsedTime = 0

	return backoff.WithMaxRetries(exp, uint64(c.maxAttempts-1))
}

// persist writes the new document state, syncs the grant rows and enqueues
// the side effects. It must run inside one transaction.
func (c *Coordinator) persist(ctx context.Context, before, doc *models.Document, fx *effects) error {
	if err := c.docs.UpdateIfVersion(ctx, doc, before.Version); err != nil {
		return err
	}

	for _, orgID := range doc.OrganizationsWithAccess {
		if before.HasAccess(orgID) {
			continue
		}
		if _, err := c.ledger.Grant(ctx, doc.ID, orgID); err != nil {
			return err
		}
	}

	for _, orgID := range before.OrganizationsWithAccess {
		if doc.HasAccess(orgID) {
			continue
		}
		if err := c.ledger.Revoke(ctx, doc.ID, orgID); err != nil && !errors.Is(err, models.ErrGrantNotFound) {
			return err
		}
	}

	events, err := fx.outboxEvents(c.newID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return nil
	}

	return c.outbox.Enqueue(ctx, events...)
}

func (c *Coordinator) afterCommit(ctx context.Context, log *slog.Logger, before, doc *models.Document, fx *effects) {
	for _, s := range fx.transitions {
		c.metrics.IncTransition(string(s))
	}

	for _, a := range fx.audits {
		if a.Privileged {
			log.Warn("privileged action committed",
				slog.String("action", string(a.Action)),
				slog.String("actor_id", a.ActorID),
				slog.Any("metadata", a.Metadata))
		}
	}

	orgs := slices.Clone(doc.OrganizationsWithAccess)
	for _, orgID := range before.OrganizationsWithAccess {
		if !slices.Contains(orgs, orgID) {
			orgs = append(orgs, orgID)
		}
	}

	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, doc.ID, doc.OwnerID, orgs); err != nil {
		log.Error("failed to invalidate document cache", slog.String("error", err.Error()))
	}
}

var surfaced = []error{
	models.ErrDocumentNotFound,
	models.ErrGrantNotFound,
	models.ErrNotOwner,
	models.ErrForbidden,
	models.ErrInvalidTransition,
	models.ErrDocumentArchived,
	models.ErrInvalidParams,
}

func (c *Coordinator) mapError(log *slog.Logger, op string, attempts int, err error) error {
	if errors.Is(err, models.ErrVersionConflict) {
		log.Warn("giving up after repeated version conflicts", slog.Int("attempts", attempts))
		return fmt.Errorf("%s: %w", op, models.ErrConcurrentModification)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, target := range surfaced {
		if errors.Is(err, target) {
			log.Warn("operation rejected", slog.String("error", err.Error()))
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	log.Error("failed to commit document", slog.String("error", err.Error()))
	return fmt.Errorf("%s: %w", op, models.ErrInternal)
}

func (c *Coordinator) startSpan(ctx context.Context, op, docID string) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("document.id", docID)))
}

func (c *Coordinator) endSpan(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	c.metrics.ObserveOperation(op, start, err)
}

func requireOwner(doc *models.Document, userID string) error {
	if doc.OwnerID != userID {
		return models.ErrNotOwner
	}
	return nil
}

func requireActive(doc *models.Document) error {
	if doc.IsArchived() {
		return models.ErrDocumentArchived
	}
	return nil
}
