package approver

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/viant/roundtrip/model"
)

// historyOf builds round trips 1..len(flags), flagging those set in flags.
func historyOf(flags []bool) []*model.Batch {
	ret := make([]*model.Batch, len(flags))
	for i, flagged := range flags {
		ret[i] = roundTrip(i+1, flagged)
	}
	return ret
}

func expectedMax(flags []bool) int {
	ret := 0
	for i, flagged := range flags {
		if flagged {
			ret = i + 1
		}
	}
	return ret
}

func shuffled(history []*model.Batch, seed int64) []*model.Batch {
	ret := append([]*model.Batch(nil), history...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(ret), func(i, j int) { ret[i], ret[j] = ret[j], ret[i] })
	return ret
}

func TestMaxFlagged_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("max flagged is the highest flagged number or 0", prop.ForAll(
		func(flags []bool) bool {
			return MaxFlagged(historyOf(flags)) == expectedMax(flags)
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("max flagged does not depend on order", prop.ForAll(
		func(flags []bool, seed int64) bool {
			history := historyOf(flags)
			return MaxFlagged(shuffled(history, seed)) == MaxFlagged(history)
		},
		gen.SliceOf(gen.Bool()),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

func TestDecide_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("outcome follows the comparison with max flagged", prop.ForAll(
		func(flags []bool, current int, seed int64) bool {
			history := shuffled(historyOf(flags), seed)
			outcome, err := Decide(roundTrip(current, false), history)
			if err != nil {
				return false
			}
			maxFlagged := expectedMax(flags)
			if outcome.MaxFlagged != maxFlagged {
				return false
			}
			switch {
			case current == maxFlagged:
				return outcome.Kind == KindApproved
			case current < maxFlagged:
				return outcome.Kind == KindSuperseded
			default:
				return outcome.Kind == KindPrematureBlock
			}
		},
		gen.SliceOfN(12, gen.Bool()),
		gen.IntRange(0, 15),
		gen.Int64(),
	))

	properties.Property("exactly one round trip of a history is approved", prop.ForAll(
		func(flags []bool) bool {
			history := historyOf(flags)
			approved := 0
			for _, candidate := range history {
				outcome, err := Decide(candidate, history)
				if err != nil {
					return false
				}
				if outcome.IsApproved() {
					approved++
				}
			}
			if expectedMax(flags) == 0 {
				return approved == 0
			}
			return approved == 1
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

func TestDecide_Concurrent(t *testing.T) {
	history := historyOf([]bool{false, true, false, true, false})
	done := make(chan Outcome, 32)
	for i := 0; i < cap(done); i++ {
		go func() {
			outcome, _ := Decide(roundTrip(4, true), history)
			done <- outcome
		}()
	}
	for i := 0; i < cap(done); i++ {
		assert.Equal(t, Approved(4), <-done)
	}
}
