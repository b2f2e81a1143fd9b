package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/openbaseline/compliance/internal/config"
	"github.com/openbaseline/compliance/internal/domain/models"
	"github.com/openbaseline/compliance/internal/domain/service"
	"github.com/openbaseline/compliance/pkg/logger"
)

// KafkaProducer publishes audit events to a Kafka topic, keyed by account so
// per-account consumers see events in order.
type KafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewKafkaProducer creates a Kafka-backed audit sink.
func NewKafkaProducer(cfg *config.KafkaConfig, log logger.Logger) service.AuditService {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaProducer{
		writer: writer,
		logger: log.WithComponent("KafkaProducer"),
	}
}

// LogEvent sends the event to the configured topic.
func (p *KafkaProducer) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "Failed to marshal audit event", err,
			logger.Fields{"event_type": event.EventType})
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AccountID),
		Value: payload,
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to publish audit event", err,
			logger.Fields{"event_type": event.EventType})
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
