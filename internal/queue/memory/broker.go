// Package memory provides an in-memory implementation of the queue interfaces.
// This is useful for testing and development without external dependencies.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"innsight-go/internal/queue"
)

// Broker is an in-memory message broker implementing the Producer interface
// and handing out bound Consumers. Messages live in per-queue channels,
// allowing simple pub/sub within a process. Consumers bound to the same
// queue compete for messages, like a consumer group.
// This implementation is safe for concurrent use.
type Broker struct {
	bufferSize int
	done       chan struct{}

	mu     sync.RWMutex
	queues map[string]chan *queue.Message
	dead   map[string][]*queue.Message
	closed bool

	wg sync.WaitGroup
}

// NewBroker creates a new in-memory broker. The buffer size determines how
// many messages each queue can hold before Publish blocks (or fails if the
// context is canceled).
func NewBroker(bufferSize int) *Broker {
	return &Broker{
		bufferSize: bufferSize,
		done:       make(chan struct{}),
		queues:     make(map[string]chan *queue.Message),
		dead:       make(map[string][]*queue.Message),
	}
}

// Publish sends a message to the named queue, creating it on first use.
// This method blocks if the queue is full until space is available, the
// context is canceled, or the broker is closed.
func (b *Broker) Publish(ctx context.Context, queueName string, msg *queue.Message) error {
	ch, err := b.channel(queueName)
	if err != nil {
		return err
	}

	select {
	case ch <- msg:
		return nil
	case <-b.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consumer returns a consumer bound to the named queue.
func (b *Broker) Consumer(queueName string) *Consumer {
	return &Consumer{broker: b, queue: queueName}
}

// Close shuts down the broker. Blocked publishers fail with ErrQueueClosed,
// running consumers drain out, and buffered messages are abandoned.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.done)
	b.wg.Wait()
	return nil
}

// Len returns the current number of messages buffered in the named queue.
// Useful for testing to verify queue state.
func (b *Broker) Len(queueName string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.queues[queueName])
}

// DeadLetters returns the messages dead-lettered from the named queue, in
// the order they were dropped. Useful for testing failure paths.
func (b *Broker) DeadLetters(queueName string) []*queue.Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*queue.Message, len(b.dead[queueName]))
	copy(out, b.dead[queueName])
	return out
}

func (b *Broker) channel(queueName string) (chan *queue.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrQueueClosed
	}
	ch, ok := b.queues[queueName]
	if !ok {
		ch = make(chan *queue.Message, b.bufferSize)
		b.queues[queueName] = ch
	}
	return ch, nil
}

// requeue schedules a redelivery after a backoff, or dead-letters the
// message once it has exhausted its redelivery budget.
func (b *Broker) requeue(ctx context.Context, queueName string, msg *queue.Message) error {
	attempts := queue.Attempts(msg)
	if attempts >= queue.MaxRedeliveries {
		b.deadLetter(queueName, msg, "redelivery limit reached")
		return nil
	}
	redelivered := withAttempts(msg, attempts+1)

	select {
	case <-ctx.Done():
		// Put the message back without waiting so it is not lost to a
		// canceled backoff.
		b.enqueue(queueName, redelivered)
		return ctx.Err()
	case <-b.done:
		return nil
	case <-time.After(queue.RedeliveryDelay(attempts)):
	}
	return b.Publish(ctx, queueName, redelivered)
}

// enqueue is a non-blocking publish. Messages that do not fit are
// dead-lettered rather than silently discarded.
func (b *Broker) enqueue(queueName string, msg *queue.Message) {
	ch, err := b.channel(queueName)
	if err != nil {
		return
	}
	select {
	case ch <- msg:
	default:
		b.deadLetter(queueName, msg, "queue full during requeue")
	}
}

func (b *Broker) deadLetter(queueName string, msg *queue.Message, reason string) {
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[queue.HeaderDLQOriginalQueue] = queueName
	headers[queue.HeaderDLQReason] = reason
	headers[queue.HeaderDLQDroppedAt] = time.Now().UTC().Format(time.RFC3339)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.dead[queueName] = append(b.dead[queueName], &queue.Message{
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	})
}

func withAttempts(msg *queue.Message, attempts int) *queue.Message {
	headers := make(map[string]string, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[queue.HeaderRedeliveryAttempts] = strconv.Itoa(attempts)
	return &queue.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

// Consumer delivers messages from one named queue to a handler, one at a
// time, and settles each delivery according to the handler's disposition.
type Consumer struct {
	broker *Broker
	queue  string
}

// Start begins consuming messages and calls the handler for each one.
// This blocks until the context is canceled or the broker is closed.
func (c *Consumer) Start(ctx context.Context, handler queue.Handler) error {
	ch, err := c.broker.channel(c.queue)
	if err != nil {
		return err
	}

	c.broker.wg.Add(1)
	defer c.broker.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.broker.done:
			return nil
		case msg := <-ch:
			switch handler(ctx, msg) {
			case queue.Ack:
			case queue.Requeue:
				if err := c.broker.requeue(ctx, c.queue, msg); err != nil {
					return err
				}
			case queue.Drop:
				c.broker.deadLetter(c.queue, msg, "dropped by handler")
			}
		}
	}
}

// Close is a no-op; the broker owns all resources.
func (c *Consumer) Close() error {
	return nil
}
