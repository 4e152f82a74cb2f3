package logsink

import (
	"context"
	"docauth/internal/models"
	"log/slog"
)

// Sink writes audit entries and notifications to the structured log. It is
// used when no message broker is configured.
type Sink struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Sink {
	return &Sink{log: log.With(slog.String("sink", "log"))}
}

func (s *Sink) Record(ctx context.Context, entry models.AuditEntry) error {
	level := slog.LevelInfo
	if entry.Privileged {
		level = slog.LevelWarn
	}

	s.log.LogAttrs(ctx, level, "audit",
		slog.String("entity_type", entry.EntityType),
		slog.String("entity_id", entry.EntityID),
		slog.String("action", string(entry.Action)),
		slog.String("actor_id", entry.ActorID),
		slog.Bool("privileged", entry.Privileged),
		slog.Any("metadata", entry.Metadata),
		slog.Time("timestamp", entry.Timestamp),
	)

	return nil
}

func (s *Sink) Notify(ctx context.Context, n models.Notification) error {
	s.log.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("target_kind", string(n.TargetKind)),
		slog.String("target_id", n.TargetID),
		slog.String("content_type", string(n.ContentType)),
		slog.String("priority", string(n.Priority)),
		slog.String("document_id", n.DocumentID),
		slog.String("message", n.Message),
	)

	return nil
}
