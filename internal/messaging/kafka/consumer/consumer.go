package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"go-elms/internal/events"
	"go-elms/internal/shared/audit"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const groupID = "elms-notifications"

// LeaveDecisionConsumer turns decision events into audit records on behalf of
// the notification pipeline. Delivery is at-least-once; Record must stay
// idempotent per leave id.
type LeaveDecisionConsumer struct {
	reader *kafkago.Reader
	audit  audit.Logger
	logger *zap.Logger
}

func NewLeaveDecisionConsumer(broker string, auditLogger audit.Logger, logger ...*zap.Logger) *LeaveDecisionConsumer {
	l := zap.L().Named("leave.consumer")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.consumer")
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		GroupID: groupID,
		Topic:   events.LeaveDecidedTopic,
	})

	return &LeaveDecisionConsumer{reader: reader, audit: auditLogger, logger: l}
}

// Run consumes until the context is cancelled.
func (c *LeaveDecisionConsumer) Run(ctx context.Context) error {
	c.logger.Info("leave decision consumer started", zap.String("topic", events.LeaveDecidedTopic))

	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("reader close failed", zap.Error(err))
		}
	}()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.logger.Info("leave decision consumer stopped")
				return nil
			}
			return err
		}

		if err := c.handle(ctx, msg); err != nil {
			c.logger.Error("handle decision event failed",
				zap.String("key", string(msg.Key)),
				zap.Error(err),
			)
		}
	}
}

func (c *LeaveDecisionConsumer) handle(ctx context.Context, msg kafkago.Message) error {
	var event events.LeaveDecidedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed payload would never deserialize on retry; log and move on.
		c.logger.Warn("skipping malformed event payload",
			zap.String("key", string(msg.Key)),
			zap.Error(err),
		)
		return nil
	}

	c.logger.Info("leave decision received",
		zap.String("leave_id", event.LeaveID),
		zap.String("employee_id", event.EmployeeID),
		zap.String("status", event.Status),
	)

	return c.audit.Record(ctx, audit.Log{
		Action:     event.EventType,
		ActorID:    event.DecidedBy,
		EntityType: "leave_request",
		EntityID:   event.LeaveID,
		Detail:     event.Status,
		OccurredAt: event.OccurredAt,
	})
}
