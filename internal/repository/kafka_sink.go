package repository

import (
	"context"

	"LunarPulse/internal/domain/models"
	"LunarPulse/internal/domain/repository"
	pkgkafka "LunarPulse/pkg/kafka"
)

// KafkaSink publishes signal records to a Kafka topic, keyed by symbol so
// per-symbol ordering survives partitioning.
type KafkaSink struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSink(producer *pkgkafka.Producer, topic string) repository.Sink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, rec *models.SignalRecord) error {
	return s.producer.Publish(ctx, s.topic, []byte(rec.Symbol), rec)
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
