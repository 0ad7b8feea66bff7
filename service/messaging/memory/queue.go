package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/viant/roundtrip/internal/clock"
	"github.com/viant/roundtrip/internal/idgen"
	"github.com/viant/roundtrip/service/messaging"
)

// ErrProcessed is returned when a message is acknowledged twice.
var ErrProcessed = errors.New("message already processed")

// Config for memory queue implementation
type Config struct {
	MaxRetries  int           `json:"maxRetries,omitempty" yaml:"maxRetries,omitempty"`
	RetryDelay  time.Duration `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty"`
	DeadLetter  bool          `json:"deadLetter,omitempty" yaml:"deadLetter,omitempty"`
	QueueBuffer int           `json:"queueBuffer,omitempty" yaml:"queueBuffer,omitempty"`
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// DeadLetter is a message that exhausted its retries.
type DeadLetter[T any] struct {
	ID       string
	Payload  T
	Attempts int
	Err      error
	FailedAt time.Time
}

// Message is a single delivery of an in-memory queue item
type Message[T any] struct {
	id        string
	payload   T
	queue     *Queue[T]
	attempt   int
	mu        sync.Mutex
	processed bool
}

func (m *Message[T]) ID() string { return m.id }

// T returns the message payload
func (m *Message[T]) T() *T { return &m.payload }

func (m *Message[T]) Attempt() int { return m.attempt }

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	return m.complete()
}

// Nack redelivers the message after RetryDelay until MaxRetries is reached,
// then moves it to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	if cErr := m.complete(); cErr != nil {
		return cErr
	}
	if m.attempt < m.queue.config.MaxRetries {
		m.queue.redeliver(&Message[T]{id: m.id, payload: m.payload, queue: m.queue, attempt: m.attempt + 1})
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.deadLetter(&DeadLetter[T]{ID: m.id, Payload: m.payload, Attempts: m.attempt + 1, Err: err, FailedAt: clock.Now()})
	}
	return nil
}

func (m *Message[T]) complete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	return nil
}

// Queue implements an in-memory messaging.Queue
type Queue[T any] struct {
	messages chan *Message[T]
	config   Config
	pending  sync.WaitGroup
	dlqMu    sync.Mutex
	dlq      []*DeadLetter[T]
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		messages: make(chan *Message[T], config.QueueBuffer),
		config:   config,
	}
}

// Publish adds a copy of t to the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if t == nil {
		return errors.New("payload was nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &Message[T]{id: idgen.New(), payload: *t, queue: q}
	select {
	case q.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume retrieves a single item from the queue
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case msg := <-q.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue[T]) redeliver(msg *Message[T]) {
	q.pending.Add(1)
	go func() {
		defer q.pending.Done()
		time.Sleep(q.config.RetryDelay)
		q.messages <- msg
	}()
}

func (q *Queue[T]) deadLetter(letter *DeadLetter[T]) {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	q.dlq = append(q.dlq, letter)
}

// WaitRedeliveries blocks until scheduled redeliveries are back in the queue.
func (q *Queue[T]) WaitRedeliveries() {
	q.pending.Wait()
}

// Size returns the current number of messages in the queue
func (q *Queue[T]) Size() int {
	return len(q.messages)
}

// DLQSize returns the number of messages in the dead letter queue
func (q *Queue[T]) DLQSize() int {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return len(q.dlq)
}

// DeadLetters returns a copy of the dead letter list.
func (q *Queue[T]) DeadLetters() []*DeadLetter[T] {
	q.dlqMu.Lock()
	defer q.dlqMu.Unlock()
	return append([]*DeadLetter[T](nil), q.dlq...)
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
