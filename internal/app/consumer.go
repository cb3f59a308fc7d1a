package app

import (
	"context"
	"os/signal"
	"syscall"

	"go-elms/internal/messaging/kafka/consumer"
	"go-elms/internal/shared/audit"

	"go.uber.org/zap"
)

// RunConsumer processes leave decision events until interrupted. It only needs
// the broker and a logger, no database.
func RunConsumer(cfg Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := consumer.NewLeaveDecisionConsumer(
		cfg.KafkaBroker,
		audit.NewZapLogger(logger),
		logger,
	)

	return c.Run(ctx)
}
