package messaging

import (
	"context"
)

// Vendor represents the name of a messaging vendor
type Vendor string

// VendorMemory is the in-process queue vendor.
const VendorMemory Vendor = "memory"

// Queue represents an abstract message queue for any payload type
type Queue[T any] interface {
	// Publish adds a new message with payload to the queue
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message represents a message retrieved from a queue
type Message[T any] interface {
	// ID returns the message id; it is stable across redeliveries.
	ID() string

	// T returns the payload of this message
	T() *T

	// Attempt returns the zero-based delivery attempt.
	Attempt() int

	// Ack acknowledges successful processing of this message
	Ack() error

	// Nack reports a failed delivery; the vendor decides on redelivery.
	Nack(err error) error
}
