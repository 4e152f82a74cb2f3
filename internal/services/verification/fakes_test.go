package verificationservice

import (
	"context"
	"docauth/internal/lifecycle"
	"docauth/internal/metrics"
	"docauth/internal/models"
	"encoding/json"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memStore keeps documents the way the SQL store does: grants live apart
// from the document row and are joined back in on read.
type memStore struct {
	mu     sync.Mutex
	docs   map[string]*models.Document
	grants map[string][]string

	// beforeUpdate runs inside UpdateIfVersion before the version check.
	beforeUpdate func(s *memStore, docID string)
	updates      int
}

func newMemStore() *memStore {
	return &memStore{
		docs:   make(map[string]*models.Document),
		grants: make(map[string][]string),
	}
}

func (s *memStore) put(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[doc.ID] = doc.Clone()
	s.grants[doc.ID] = slices.Sorted(slices.Values(doc.OrganizationsWithAccess))
}

func (s *memStore) get(t *testing.T, id string) *models.Document {
	t.Helper()

	doc, err := s.DocumentByID(context.Background(), id)
	require.NoError(t, err)
	return doc
}

func (s *memStore) CreateDocument(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.ID]; ok {
		return &models.UniqueConstraintError{Constraint: "documents_pkey", Err: models.ErrUNIQUEConstraintFailed}
	}
	s.docs[doc.ID] = doc.Clone()
	return nil
}

func (s *memStore) DocumentByID(_ context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, models.ErrDocumentNotFound
	}

	out := doc.Clone()
	out.OrganizationsWithAccess = slices.Clone(s.grants[id])
	return out, nil
}

func (s *memStore) UpdateIfVersion(_ context.Context, doc *models.Document, expected int64) error {
	if s.beforeUpdate != nil {
		s.beforeUpdate(s, doc.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.updates++

	stored, ok := s.docs[doc.ID]
	if !ok || stored.Version != expected {
		return models.ErrVersionConflict
	}

	next := doc.Clone()
	next.OrganizationsWithAccess = nil
	next.Version = expected + 1
	s.docs[doc.ID] = next
	doc.Version = expected + 1

	return nil
}

// bump simulates a concurrent writer committing in between.
func (s *memStore) bump(docID string, orgID string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.docs[docID]
	doc.VerificationStatuses[orgID] = status
	doc.Version++
	if !slices.Contains(s.grants[docID], orgID) {
		s.grants[docID] = slices.Sorted(slices.Values(append(s.grants[docID], orgID)))
	}
}

type memLedger struct {
	store *memStore
}

func (l *memLedger) Grant(_ context.Context, docID, orgID string) (bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	if slices.Contains(l.store.grants[docID], orgID) {
		return false, nil
	}
	l.store.grants[docID] = slices.Sorted(slices.Values(append(l.store.grants[docID], orgID)))
	return true, nil
}

func (l *memLedger) Revoke(_ context.Context, docID, orgID string) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	i := slices.Index(l.store.grants[docID], orgID)
	if i < 0 {
		return models.ErrGrantNotFound
	}
	l.store.grants[docID] = slices.Delete(l.store.grants[docID], i, i+1)
	return nil
}

type memOutbox struct {
	mu     sync.Mutex
	events []models.OutboxEvent
}

func (o *memOutbox) Enqueue(_ context.Context, events ...models.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.events = append(o.events, events...)
	return nil
}

func (o *memOutbox) audits(t *testing.T) []models.AuditEntry {
	t.Helper()

	o.mu.Lock()
	defer o.mu.Unlock()

	var out []models.AuditEntry
	for _, ev := range o.events {
		if ev.Kind != models.OutboxAudit {
			continue
		}
		var a models.AuditEntry
		require.NoError(t, json.Unmarshal(ev.Payload, &a))
		out = append(out, a)
	}
	return out
}

func (o *memOutbox) notifications(t *testing.T) []models.Notification {
	t.Helper()

	o.mu.Lock()
	defer o.mu.Unlock()

	var out []models.Notification
	for _, ev := range o.events {
		if ev.Kind != models.OutboxNotification {
			continue
		}
		var n models.Notification
		require.NoError(t, json.Unmarshal(ev.Payload, &n))
		out = append(out, n)
	}
	return out
}

// serialTx runs transactions one at a time.
type serialTx struct {
	mu sync.Mutex
}

func (tx *serialTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	return fn(ctx)
}

type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) Invalidate(ctx context.Context, docID, ownerID string, orgIDs []string) error {
	args := m.Called(ctx, docID, ownerID, orgIDs)
	return args.Error(0)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) DocumentByID(ctx context.Context, id string) (*models.Document, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*models.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentStore) UpdateIfVersion(ctx context.Context, doc *models.Document, expected int64) error {
	args := m.Called(ctx, doc, expected)
	return args.Error(0)
}

type harness struct {
	c       *Coordinator
	store   *memStore
	outbox  *memOutbox
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := newMemStore()
	outbox := &memOutbox{}
	m := metrics.New(nil)

	c := New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config{MaxAttempts: 3, BaseDelay: time.Microsecond},
		store,
		&memLedger{store: store},
		outbox,
		&serialTx{},
		nil,
		m,
	)
	c.now = func() time.Time { return testNow }

	return &harness{c: c, store: store, outbox: outbox, metrics: m}
}

func draftDocument(id string) *models.Document {
	return &models.Document{
		ID:                   id,
		OwnerID:              "owner-1",
		Title:                "Passport",
		OverallStatus:        models.StatusDraft,
		VerificationStatuses: map[string]models.Status{},
		Version:              1,
		CreatedAt:            testNow.Add(-time.Hour),
		UpdatedAt:            testNow.Add(-time.Hour),
	}
}

func withStatuses(doc *models.Document, statuses map[string]models.Status) *models.Document {
	doc.VerificationStatuses = statuses
	for orgID := range statuses {
		doc.OrganizationsWithAccess = append(doc.OrganizationsWithAccess, orgID)
	}
	slices.Sort(doc.OrganizationsWithAccess)
	doc.OverallStatus = lifecycle.Overall(doc)
	return doc
}

func member(orgID string) *models.User {
	return &models.User{ID: "reviewer-" + orgID, Login: "reviewer" + orgID, OrganizationID: orgID}
}
