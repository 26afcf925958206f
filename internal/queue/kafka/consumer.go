package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"innsight-go/internal/config"
	"innsight-go/internal/metrics"
	"innsight-go/internal/queue"
)

// Consumer implements queue.Consumer using Kafka. It is bound to one topic
// and fetches a single message at a time, so a crash loses at most one
// in-flight delivery and the group redelivers it.
type Consumer struct {
	reader   *kafka.Reader
	producer *Producer
	logger   *slog.Logger
	queue    string
}

// NewConsumer creates a new Kafka consumer bound to the named queue. The
// consumer group is derived from the configured group prefix, so every
// instance consuming the same queue shares one group and the queue's
// messages are divided among them.
func NewConsumer(cfg *config.BrokerConfig, queueName string, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:       cfg.Brokers,
		Topic:         queueName,
		GroupID:       cfg.GroupPrefix + "." + queueName,
		MinBytes:      1,
		MaxBytes:      10e6, // 10MB
		QueueCapacity: 1,    // One in-flight message at a time
	})

	return &Consumer{
		reader:   reader,
		producer: NewProducer(cfg),
		logger:   logger,
		queue:    queueName,
	}
}

// Start begins consuming messages and calls the handler for each one.
// Every fetched message is settled exactly once: acked, requeued with a
// backoff, or dead-lettered, and then committed.
func (c *Consumer) Start(ctx context.Context, handler queue.Handler) error {
	c.logger.Info("starting kafka consumer",
		"queue", c.queue,
		"group", c.reader.Config().GroupID,
	)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka consumer stopping due to context cancellation", "queue", c.queue)
			return ctx.Err()
		default:
		}

		kafkaMsg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to fetch message", "queue", c.queue, "error", err)
			continue
		}

		// Convert Kafka message to queue.Message
		msg := &queue.Message{
			Key:     kafkaMsg.Key,
			Value:   kafkaMsg.Value,
			Headers: make(map[string]string),
		}
		for _, h := range kafkaMsg.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		switch handler(ctx, msg) {
		case queue.Ack:
		case queue.Requeue:
			// Leaving the message uncommitted would not redeliver it to
			// this running instance, so requeueing is a republish.
			if err := c.redeliver(ctx, msg); err != nil {
				return err
			}
		case queue.Drop:
			if err := c.deadLetter(ctx, msg, "dropped by handler"); err != nil {
				return err
			}
		}

		// Commit after the disposition is settled. A failure here means the
		// message may be seen again, which handlers tolerate.
		if err := c.reader.CommitMessages(ctx, kafkaMsg); err != nil {
			c.logger.Error("failed to commit message",
				"queue", c.queue,
				"partition", kafkaMsg.Partition,
				"offset", kafkaMsg.Offset,
				"error", err,
			)
			return fmt.Errorf("failed to commit message: %w", err)
		}
	}
}

// redeliver republishes the message to its own queue with a bumped attempt
// count after a backoff, or dead-letters it once the redelivery budget is
// exhausted. Errors are returned without committing so the message is not
// lost.
func (c *Consumer) redeliver(ctx context.Context, msg *queue.Message) error {
	attempts := queue.Attempts(msg)
	if attempts >= queue.MaxRedeliveries {
		return c.deadLetter(ctx, msg, "redelivery limit reached")
	}

	delay := queue.RedeliveryDelay(attempts)
	c.logger.Warn("requeueing message",
		"queue", c.queue,
		"attempt", attempts+1,
		"delay", delay,
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}

	headers := cloneHeaders(msg.Headers, 1)
	headers[queue.HeaderRedeliveryAttempts] = fmt.Sprintf("%d", attempts+1)

	err := c.producer.Publish(ctx, c.queue, &queue.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("failed to requeue message: %w", err)
	}

	metrics.QueueMessagesRequeued.WithLabelValues(c.queue).Inc()
	return nil
}

// deadLetter moves the message to the queue's dead-letter topic with
// metadata describing why it was dropped.
func (c *Consumer) deadLetter(ctx context.Context, msg *queue.Message, reason string) error {
	c.logger.Warn("dead-lettering message",
		"queue", c.queue,
		"reason", reason,
	)

	headers := cloneHeaders(msg.Headers, 3)
	headers[queue.HeaderDLQOriginalQueue] = c.queue
	headers[queue.HeaderDLQReason] = reason
	headers[queue.HeaderDLQDroppedAt] = time.Now().UTC().Format(time.RFC3339)

	err := c.producer.Publish(ctx, queue.DLQName(c.queue), &queue.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
	if err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}

	metrics.QueueMessagesDeadLettered.WithLabelValues(c.queue).Inc()
	return nil
}

func cloneHeaders(headers map[string]string, extra int) map[string]string {
	out := make(map[string]string, len(headers)+extra)
	for k, v := range headers {
		out[k] = v
	}
	return out
}

// Close closes the Kafka reader and the internal producer.
func (c *Consumer) Close() error {
	if c.reader != nil {
		if err := c.reader.Close(); err != nil {
			return err
		}
	}
	return c.producer.Close()
}
