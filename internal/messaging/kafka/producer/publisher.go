package producer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

//go:generate mockgen -source=publisher.go -destination=mock/publisher_mock.go -package=mock
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}

type kafkaPublisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

func NewPublisher(writer *kafkago.Writer, logger ...*zap.Logger) Publisher {
	l := zap.L().Named("kafka.publisher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("kafka.publisher")
	}
	return &kafkaPublisher{writer: writer, logger: l}
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		p.logger.Error("publish failed",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}

	p.logger.Debug("published message",
		zap.String("topic", topic),
		zap.String("key", key),
	)
	return nil
}
