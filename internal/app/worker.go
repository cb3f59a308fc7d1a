package app

import (
	"context"
	"os/signal"
	"syscall"

	"go-elms/internal/messaging/kafka"
	"go-elms/internal/messaging/kafka/producer"
	"go-elms/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker drains the transactional outbox to the broker until interrupted.
func RunWorker(a *App) error {
	writer, err := connection.ConnectKafkaWithRetry(a.Config.KafkaBroker, a.Config.ConnectRetries)
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			a.Logger.Warn("kafka writer close failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := producer.NewOutboxWorker(
		kafka.NewOutboxRepository(a.SqlDB),
		producer.NewPublisher(writer, a.Logger),
		a.Logger,
	)
	worker.Run(ctx)

	return nil
}
