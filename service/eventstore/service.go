package eventstore

import (
	"context"

	"github.com/viant/roundtrip/model"
)

// Provider returns the complete round-trip history of a batch.
type Provider interface {
	// AllRoundTrips returns every round trip of batchID ascending by number.
	// An unknown batch yields an empty history, not an error.
	AllRoundTrips(ctx context.Context, batchID string) ([]*model.Batch, error)
}

// Sink appends events to a round trip's history.
type Sink interface {
	// AddEvent appends event to batchID/roundTrip. Appends are not
	// deduplicated.
	AddEvent(ctx context.Context, batchID string, roundTrip int, event *model.Event) error
}

// Storage is a full event store.
type Storage interface {
	Provider
	Sink

	// AddRoundTrip registers a round trip without events; it is a no-op for
	// a known round trip.
	AddRoundTrip(ctx context.Context, batchID string, roundTrip int) error

	// BatchIDs lists the known batch ids in ascending order.
	BatchIDs(ctx context.Context) ([]string, error)

	// Close releases underlying resources.
	Close() error
}
