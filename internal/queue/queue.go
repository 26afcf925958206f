// Package queue defines interfaces for message queue operations.
// This abstraction allows swapping implementations (Kafka, in-memory)
// without changing pipeline logic.
package queue

import (
	"context"
	"math/rand"
	"strconv"
	"time"
)

// Message represents a message in the queue.
type Message struct {
	// Key is the partition key for ordering guarantees.
	Key []byte

	// Value is the message payload.
	Value []byte

	// Headers contains optional metadata.
	Headers map[string]string
}

// Disposition is the terminal outcome a handler assigns to a delivery.
// Every delivered message gets exactly one: the consumer implementation
// issues the matching broker operation after the handler returns, so a
// handler can never leak an unsettled delivery.
type Disposition int

const (
	// Ack marks the message fully processed; the broker discards it.
	Ack Disposition = iota

	// Requeue marks processing as failed for a transient reason; the
	// broker redelivers the message after a backoff. A message that
	// exhausts MaxRedeliveries is dead-lettered instead.
	Requeue

	// Drop marks the message as permanently unprocessable; it is moved
	// to the queue's dead-letter destination and never redelivered.
	Drop
)

// String returns the disposition name for logs.
func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Requeue:
		return "requeue"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Handler processes one delivered message and decides its disposition.
// Handlers run strictly one at a time per consumer instance; throughput
// scales by running more instances, not by in-process concurrency.
type Handler func(ctx context.Context, msg *Message) Disposition

// Producer defines the interface for publishing messages to a named queue.
// Implementations must be safe for concurrent use. A nil return means the
// broker has accepted responsibility for the message.
type Producer interface {
	// Publish sends a message to the named queue.
	// The key is used for partitioning - messages with the same key
	// are guaranteed to be processed in order.
	Publish(ctx context.Context, queueName string, msg *Message) error

	// Close releases any resources held by the producer.
	Close() error
}

// Consumer defines the interface for consuming messages from the queue
// the consumer was bound to at construction.
type Consumer interface {
	// Start begins consuming messages and calls the handler for each one.
	// This is a blocking call that runs until the context is canceled
	// or an unrecoverable error occurs. The in-flight message, if any,
	// receives its disposition before Start returns.
	Start(ctx context.Context, handler Handler) error

	// Close stops consuming and releases any resources.
	Close() error
}

// Redelivery policy. Fixed by design, like the queue names: every
// deployment has to agree on these for the pipeline to behave.
const (
	// MaxRedeliveries is how many times a message may be requeued before
	// a Requeue disposition is escalated to a dead-letter.
	MaxRedeliveries = 5

	// HeaderRedeliveryAttempts carries the redelivery count on the wire.
	HeaderRedeliveryAttempts = "x-redelivery-attempts"

	redeliveryBase = 250 * time.Millisecond
	redeliveryCap  = 30 * time.Second
	jitterFraction = 0.25
)

// Dead-letter metadata headers attached when a message is dropped.
const (
	HeaderDLQOriginalQueue = "dlq.original_queue"
	HeaderDLQReason        = "dlq.reason"
	HeaderDLQDroppedAt     = "dlq.dropped_at"
)

// DLQName returns the dead-letter queue name for a queue.
func DLQName(queueName string) string {
	return queueName + ".dlq"
}

// Attempts reads the redelivery count from a message's headers. A first
// delivery, or an unparseable header, counts as zero.
func Attempts(msg *Message) int {
	if msg == nil || msg.Headers == nil {
		return 0
	}
	n, err := strconv.Atoi(msg.Headers[HeaderRedeliveryAttempts])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// RedeliveryDelay returns the backoff before redelivery attempt n
// (zero-indexed): 250ms, 500ms, 1s, ... with 25% jitter, capped at 30s.
func RedeliveryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := redeliveryBase << attempt
	if base <= 0 || base > redeliveryCap {
		base = redeliveryCap
	}
	jitter := time.Duration(float64(base) * jitterFraction * (2*rand.Float64() - 1))
	return base + jitter
}
