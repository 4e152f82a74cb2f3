package kafka

import (
	"context"
	"docauth/internal/models"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

const pkg = "kafkaSink/"

const (
	defaultAuditTopic        = "docauth.audit"
	defaultNotificationTopic = "docauth.notifications"
)

type Config struct {
	Brokers           []string
	ClientID          string
	AuditTopic        string
	NotificationTopic string
}

type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Sink publishes audit entries and notifications as JSON records keyed by
// document id, so events of one document stay ordered within a partition.
type Sink struct {
	producer          producer
	auditTopic        string
	notificationTopic string
}

func New(cfg Config) (*Sink, error) {
	op := pkg + "New"

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("%s: no brokers configured", op)
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newSink(client, cfg), nil
}

func newSink(p producer, cfg Config) *Sink {
	if cfg.AuditTopic == "" {
		cfg.AuditTopic = defaultAuditTopic
	}
	if cfg.NotificationTopic == "" {
		cfg.NotificationTopic = defaultNotificationTopic
	}

	return &Sink{
		producer:          p,
		auditTopic:        cfg.AuditTopic,
		notificationTopic: cfg.NotificationTopic,
	}
}

func (s *Sink) Record(ctx context.Context, entry models.AuditEntry) error {
	op := pkg + "Record"

	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rec := &kgo.Record{
		Topic: s.auditTopic,
		Key:   []byte(entry.EntityID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(entry.Action)},
			{Key: "entity_type", Value: []byte(entry.EntityType)},
		},
		Timestamp: entry.Timestamp,
	}

	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Sink) Notify(ctx context.Context, n models.Notification) error {
	op := pkg + "Notify"

	if n.TargetID == "" {
		return fmt.Errorf("%s: notification without target", op)
	}

	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rec := &kgo.Record{
		Topic: s.notificationTopic,
		Key:   []byte(n.DocumentID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content_type", Value: []byte(n.ContentType)},
			{Key: "priority", Value: []byte(n.Priority)},
			{Key: "target", Value: []byte(string(n.TargetKind) + ":" + n.TargetID)},
		},
		Timestamp: n.CreatedAt,
	}

	if err := s.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Sink) Close() {
	s.producer.Close()
}
