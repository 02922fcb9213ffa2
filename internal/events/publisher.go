package events

import (
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Publisher delivers a single outbox message to the outside world.
type Publisher interface {
	Publish(topic, key, payload string) error
	Close() error
}

// KafkaPublisher publishes payment events to a Kafka topic.
type KafkaPublisher struct {
	producer sarama.SyncProducer
}

func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	zap.L().Info("Kafka producer created", zap.Strings("brokers", brokers))
	return &KafkaPublisher{producer: producer}, nil
}

func (p *KafkaPublisher) Publish(topic, key, payload string) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(payload),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return err
	}

	zap.L().Debug("Event published",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher writes events to the log. Used when no broker is configured,
// so the outbox still drains in development setups.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(topic, key, payload string) error {
	zap.L().Info("Payment event",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.String("payload", payload))
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
