package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Batch represents one round trip of a physical batch together with its
// event history.
type Batch struct {
	BatchID         string   `json:"batchId" yaml:"batchId"`
	RoundTripNumber int      `json:"roundTripNumber" yaml:"roundTripNumber"`
	Events          []*Event `json:"events,omitempty" yaml:"events,omitempty"`
}

// NewBatch creates a batch round trip
func NewBatch(batchID string, roundTrip int, events ...*Event) *Batch {
	return &Batch{BatchID: batchID, RoundTripNumber: roundTrip, Events: events}
}

// FullID returns the reporting identifier, e.g. B400022028241-RT1
func (b *Batch) FullID() string {
	return FullID(b.BatchID, b.RoundTripNumber)
}

// HasEvent returns true when at least one event carries the supplied id.
func (b *Batch) HasEvent(id string) bool {
	if b == nil {
		return false
	}
	for _, event := range b.Events {
		if event != nil && event.ID == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy; events are immutable and therefore shared.
func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	ret := *b
	if b.Events != nil {
		ret.Events = make([]*Event, len(b.Events))
		copy(ret.Events, b.Events)
	}
	return &ret
}

// FullID formats a batch id and round-trip number as B<batchID>-RT<n>.
func FullID(batchID string, roundTrip int) string {
	return "B" + batchID + "-RT" + strconv.Itoa(roundTrip)
}

// ParseFullID parses B<batchID>-RT<n> back into its parts.
func ParseFullID(fullID string) (string, int, error) {
	if !strings.HasPrefix(fullID, "B") {
		return "", 0, fmt.Errorf("invalid full id %q: missing B prefix", fullID)
	}
	idx := strings.LastIndex(fullID, "-RT")
	if idx <= 1 {
		return "", 0, fmt.Errorf("invalid full id %q: missing -RT suffix", fullID)
	}
	roundTrip, err := strconv.Atoi(fullID[idx+3:])
	if err != nil || roundTrip < 0 {
		return "", 0, fmt.Errorf("invalid full id %q: bad round trip number", fullID)
	}
	return fullID[1:idx], roundTrip, nil
}
