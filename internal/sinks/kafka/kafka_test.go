package kafka

import (
	"context"
	"docauth/internal/models"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
	closed  bool
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) Close() {
	f.closed = true
}

func header(r *kgo.Record, key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestRecord_PublishesKeyedByDocument(t *testing.T) {
	t.Parallel()

	p := &fakeProducer{}
	s := newSink(p, Config{})

	entry := models.AuditEntry{
		EntityType: models.AuditEntityDocument,
		EntityID:   "doc-1",
		Action:     models.AuditRevokeAccess,
		ActorID:    "owner-1",
		Privileged: true,
		Timestamp:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	require.NoError(t, s.Record(context.Background(), entry))
	require.Len(t, p.records, 1)

	rec := p.records[0]
	assert.Equal(t, defaultAuditTopic, rec.Topic)
	assert.Equal(t, "doc-1", string(rec.Key))
	assert.Equal(t, "REVOKE_DOCUMENT_ACCESS", header(rec, "action"))

	var got models.AuditEntry
	require.NoError(t, json.Unmarshal(rec.Value, &got))
	assert.True(t, got.Privileged)
	assert.Equal(t, "owner-1", got.ActorID)
}

func TestNotify_UsesConfiguredTopic(t *testing.T) {
	t.Parallel()

	p := &fakeProducer{}
	s := newSink(p, Config{NotificationTopic: "alerts"})

	err := s.Notify(context.Background(), models.Notification{
		TargetID:    "orgA",
		TargetKind:  models.TargetOrganization,
		ContentType: models.ContentVerificationRequested,
		Priority:    models.PriorityHigh,
		DocumentID:  "doc-1",
	})
	require.NoError(t, err)

	rec := p.records[0]
	assert.Equal(t, "alerts", rec.Topic)
	assert.Equal(t, "HIGH", header(rec, "priority"))
	assert.Equal(t, "organization:orgA", header(rec, "target"))
}

func TestSink_ProduceErrorIsReturned(t *testing.T) {
	t.Parallel()

	p := &fakeProducer{err: errors.New("leader not available")}
	s := newSink(p, Config{})

	err := s.Record(context.Background(), models.AuditEntry{EntityID: "doc-1"})
	assert.ErrorContains(t, err, "leader not available")

	err = s.Notify(context.Background(), models.Notification{})
	assert.Error(t, err)
	assert.Len(t, p.records, 1, "notifications without a target are not published")

	s.Close()
	assert.True(t, p.closed)
}

func TestNew_RequiresBrokers(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	assert.Error(t, err)
}
