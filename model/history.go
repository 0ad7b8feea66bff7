package model

import "fmt"

// History is the ordered list of all round trips of a single batch.
type History []*Batch

// Lookup returns the round trip with the supplied number or nil.
func (h History) Lookup(roundTrip int) *Batch {
	for _, candidate := range h {
		if candidate != nil && candidate.RoundTripNumber == roundTrip {
			return candidate
		}
	}
	return nil
}

// Validate checks that every round trip belongs to batchID and that round-trip
// numbers are unique. Ordering is not checked.
func (h History) Validate(batchID string) error {
	seen := make(map[int]bool, len(h))
	for i, candidate := range h {
		if candidate == nil {
			return fmt.Errorf("round trip at position %d is nil", i)
		}
		if candidate.BatchID != batchID {
			return fmt.Errorf("round trip %s does not belong to batch %s", candidate.FullID(), batchID)
		}
		if candidate.RoundTripNumber < 0 {
			return fmt.Errorf("round trip %s has negative number", candidate.FullID())
		}
		if seen[candidate.RoundTripNumber] {
			return fmt.Errorf("duplicate round trip number %d for batch %s", candidate.RoundTripNumber, batchID)
		}
		seen[candidate.RoundTripNumber] = true
	}
	return nil
}

// Clone returns a deep copy of the history.
func (h History) Clone() History {
	if h == nil {
		return nil
	}
	ret := make(History, len(h))
	for i, candidate := range h {
		ret[i] = candidate.Clone()
	}
	return ret
}
