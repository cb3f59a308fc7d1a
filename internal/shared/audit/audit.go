package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Log is one recorded business event, kept separate from diagnostic logging so
// it can be shipped to a retention store later.
type Log struct {
	Action     string
	ActorID    string
	EntityType string
	EntityID   string
	Detail     string
	OccurredAt time.Time
}

//go:generate mockgen -source=audit.go -destination=mock/audit_mock.go -package=mock
type Logger interface {
	Record(ctx context.Context, entry Log) error
}

type zapAuditLogger struct {
	logger *zap.Logger
}

// NewZapLogger writes audit entries through zap at info level.
func NewZapLogger(logger ...*zap.Logger) Logger {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &zapAuditLogger{logger: l}
}

func (a *zapAuditLogger) Record(_ context.Context, entry Log) error {
	a.logger.Info("audit",
		zap.String("action", entry.Action),
		zap.String("actor_id", entry.ActorID),
		zap.String("entity_type", entry.EntityType),
		zap.String("entity_id", entry.EntityID),
		zap.String("detail", entry.Detail),
		zap.Time("occurred_at", entry.OccurredAt),
	)
	return nil
}
