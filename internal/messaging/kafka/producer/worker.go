package producer

import (
	"context"
	"time"

	"go-elms/internal/messaging/kafka"

	"go.uber.org/zap"
)

const (
	pollInterval = 2 * time.Second
	batchSize    = 50
)

// OutboxWorker drains pending outbox rows to the broker. Events are marked sent
// only after the broker acknowledges, so a crash re-delivers rather than drops;
// consumers must tolerate duplicates.
type OutboxWorker struct {
	outbox    kafka.OutboxRepository
	publisher Publisher
	logger    *zap.Logger
}

func NewOutboxWorker(outbox kafka.OutboxRepository, publisher Publisher, logger ...*zap.Logger) *OutboxWorker {
	l := zap.L().Named("outbox.worker")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("outbox.worker")
	}
	return &OutboxWorker{outbox: outbox, publisher: publisher, logger: l}
}

// Run polls until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	w.logger.Info("outbox worker started",
		zap.Duration("poll_interval", pollInterval),
		zap.Int("batch_size", batchSize),
	)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.ProcessOutboxEvents(ctx); err != nil {
				w.logger.Error("outbox pass failed", zap.Error(err))
			}
		}
	}
}

// ProcessOutboxEvents publishes one batch of due events.
func (w *OutboxWorker) ProcessOutboxEvents(ctx context.Context) error {
	events, err := w.outbox.ListPending(ctx, batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := w.publisher.Publish(ctx, event.Topic, event.AggregateID, event.Payload); err != nil {
			if markErr := w.outbox.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				w.logger.Error("mark failed errored",
					zap.String("event_id", event.ID),
					zap.Error(markErr),
				)
			}
			continue
		}

		if err := w.outbox.MarkSent(ctx, event.ID); err != nil {
			w.logger.Error("mark sent errored",
				zap.String("event_id", event.ID),
				zap.Error(err),
			)
			continue
		}

		w.logger.Debug("outbox event sent",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)
	}

	return nil
}
