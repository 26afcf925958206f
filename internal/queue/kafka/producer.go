// Package kafka provides Kafka-based implementations of the queue interfaces.
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"innsight-go/internal/config"
	"innsight-go/internal/queue"
)

// Producer implements queue.Producer using Kafka. A single producer serves
// every queue; the destination topic is chosen per message.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a new Kafka producer. Writes wait for acknowledgement
// from all in-sync replicas, so a nil Publish means the message is durable.
func NewProducer(cfg *config.BrokerConfig) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{}, // Use key-based partitioning
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer: writer,
	}
}

// Publish sends a message to the Kafka topic named by queueName.
func (p *Producer) Publish(ctx context.Context, queueName string, msg *queue.Message) error {
	kafkaMsg := kafka.Message{
		Topic: queueName,
		Key:   msg.Key,
		Value: msg.Value,
	}

	// Convert headers
	if len(msg.Headers) > 0 {
		kafkaMsg.Headers = make([]kafka.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			kafkaMsg.Headers = append(kafkaMsg.Headers, kafka.Header{
				Key:   k,
				Value: []byte(v),
			})
		}
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
