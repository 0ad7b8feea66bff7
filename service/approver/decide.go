package approver

import (
	"errors"
	"fmt"

	"github.com/viant/roundtrip/model"
)

var (
	// ErrInvalidHistory is returned when the round-trip history breaks the
	// uniqueness invariant or is otherwise unusable for a decision.
	ErrInvalidHistory = errors.New("approver: invalid round-trip history")

	// ErrBatchMismatch is returned when a history entry belongs to a batch
	// other than the one being evaluated.
	ErrBatchMismatch = errors.New("approver: round trip belongs to another batch")
)

// MaxFlagged returns the highest round-trip number among round trips that
// carry at least one Manual_QA_Flagged event, or 0 when none does.
// The result does not depend on the order of history.
func MaxFlagged(history []*model.Batch) int {
	max := 0
	for _, roundTrip := range history {
		if roundTrip.HasEvent(model.EventManualQAFlagged) && roundTrip.RoundTripNumber > max {
			max = roundTrip.RoundTripNumber
		}
	}
	return max
}

// Decide compares current against the highest flagged round trip in history.
// It never mutates its arguments. A history that does not contain current is
// accepted; an empty history yields maxFlagged 0.
func Decide(current *model.Batch, history []*model.Batch) (Outcome, error) {
	if err := checkHistory(current, history); err != nil {
		return Outcome{}, err
	}
	maxFlagged := MaxFlagged(history)
	switch {
	case current.RoundTripNumber == maxFlagged:
		return Approved(maxFlagged), nil
	case current.RoundTripNumber < maxFlagged:
		return SupersededBy(maxFlagged), nil
	default:
		return PrematureBlock(maxFlagged), nil
	}
}

func checkHistory(current *model.Batch, history []*model.Batch) error {
	if current == nil {
		return fmt.Errorf("%w: current round trip is nil", ErrInvalidHistory)
	}
	if current.RoundTripNumber < 0 {
		return fmt.Errorf("%w: %s has negative round-trip number", ErrInvalidHistory, current.FullID())
	}
	seen := make(map[int]bool, len(history))
	for i, roundTrip := range history {
		if roundTrip == nil {
			return fmt.Errorf("%w: nil round trip at position %d", ErrInvalidHistory, i)
		}
		if roundTrip.BatchID != current.BatchID {
			return fmt.Errorf("%w: %s while evaluating %s", ErrBatchMismatch, roundTrip.FullID(), current.FullID())
		}
		if seen[roundTrip.RoundTripNumber] {
			return fmt.Errorf("%w: duplicate round trip %s", ErrInvalidHistory, roundTrip.FullID())
		}
		seen[roundTrip.RoundTripNumber] = true
	}
	return nil
}
