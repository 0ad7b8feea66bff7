package memory

import (
	"context"
	"errors"
	"sort"

	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/dao"
	"github.com/viant/roundtrip/service/dao/store"
	"github.com/viant/roundtrip/service/eventstore"
)

// history is the stored representation of one batch.
type history struct {
	BatchID    string
	RoundTrips map[int]*model.Batch
}

func (h *history) clone() *history {
	ret := &history{BatchID: h.BatchID, RoundTrips: make(map[int]*model.Batch, len(h.RoundTrips))}
	for k, v := range h.RoundTrips {
		ret.RoundTrips[k] = v.Clone()
	}
	return ret
}

func historyKey(h *history) string { return h.BatchID }

// Service implements an in-memory event store. All reads return copies so
// callers can never mutate stored histories.
type Service struct {
	batches *store.MemoryStore[string, history]
}

var _ eventstore.Storage = (*Service)(nil)

// AllRoundTrips returns copies of every round trip ascending by number.
func (s *Service) AllRoundTrips(ctx context.Context, batchID string) ([]*model.Batch, error) {
	if batchID == "" {
		return nil, dao.ErrInvalidID
	}
	h, err := s.batches.Load(ctx, batchID)
	if errors.Is(err, dao.ErrNotFound) {
		return []*model.Batch{}, nil
	}
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Batch, 0, len(h.RoundTrips))
	for _, roundTrip := range h.RoundTrips {
		ret = append(ret, roundTrip.Clone())
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].RoundTripNumber < ret[j].RoundTripNumber })
	return ret, nil
}

// AddEvent appends a copy of event to the round trip, registering it first if needed.
func (s *Service) AddEvent(ctx context.Context, batchID string, roundTrip int, event *model.Event) error {
	if err := eventstore.ValidateAppend(batchID, roundTrip, event); err != nil {
		return err
	}
	stored := *event
	return s.batches.Update(ctx, batchID, func(current *history) (*history, error) {
		next := ensureRoundTrip(current, batchID, roundTrip)
		rt := next.RoundTrips[roundTrip]
		rt.Events = append(rt.Events, &stored)
		return next, nil
	})
}

// AddRoundTrip registers a round trip without events.
func (s *Service) AddRoundTrip(ctx context.Context, batchID string, roundTrip int) error {
	if err := eventstore.ValidateRoundTrip(batchID, roundTrip); err != nil {
		return err
	}
	return s.batches.Update(ctx, batchID, func(current *history) (*history, error) {
		return ensureRoundTrip(current, batchID, roundTrip), nil
	})
}

// BatchIDs lists known batch ids ascending.
func (s *Service) BatchIDs(ctx context.Context) ([]string, error) {
	all, err := s.batches.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]string, 0, len(all))
	for _, h := range all {
		ret = append(ret, h.BatchID)
	}
	sort.Strings(ret)
	return ret, nil
}

// Close is a no-op.
func (s *Service) Close() error { return nil }

// ensureRoundTrip returns a copy of current that contains roundTrip.
func ensureRoundTrip(current *history, batchID string, roundTrip int) *history {
	var next *history
	if current == nil {
		next = &history{BatchID: batchID, RoundTrips: map[int]*model.Batch{}}
	} else {
		next = current.clone()
	}
	if _, ok := next.RoundTrips[roundTrip]; !ok {
		next.RoundTrips[roundTrip] = model.NewBatch(batchID, roundTrip)
	}
	return next
}

// New creates an empty in-memory event store
func New() *Service {
	return &Service{batches: store.NewMemoryStore[string, history](historyKey)}
}
