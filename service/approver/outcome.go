package approver

import "fmt"

// Kind enumerates the closed set of decision outcomes.
type Kind int

const (
	// KindApproved - the round trip is the last one flagged for manual QA.
	KindApproved Kind = iota
	// KindSuperseded - a later round trip was flagged and holds the approval.
	KindSuperseded
	// KindPrematureBlock - an earlier round trip already holds the approval.
	KindPrematureBlock
)

func (k Kind) String() string {
	switch k {
	case KindApproved:
		return "approved"
	case KindSuperseded:
		return "superseded"
	case KindPrematureBlock:
		return "premature"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the decision for one round trip. MaxFlagged is the highest
// flagged round-trip number the decision was based on.
type Outcome struct {
	Kind       Kind `json:"kind"`
	MaxFlagged int  `json:"maxFlagged"`
}

// Approved returns the approved outcome.
func Approved(maxFlagged int) Outcome {
	return Outcome{Kind: KindApproved, MaxFlagged: maxFlagged}
}

// SupersededBy returns the outcome for a round trip older than the approved one.
func SupersededBy(maxFlagged int) Outcome {
	return Outcome{Kind: KindSuperseded, MaxFlagged: maxFlagged}
}

// PrematureBlock returns the outcome for a round trip newer than the approved one.
func PrematureBlock(maxFlagged int) Outcome {
	return Outcome{Kind: KindPrematureBlock, MaxFlagged: maxFlagged}
}

// IsApproved returns true for KindApproved.
func (o Outcome) IsApproved() bool {
	return o.Kind == KindApproved
}

func (o Outcome) String() string {
	if o.Kind == KindApproved {
		return o.Kind.String()
	}
	return fmt.Sprintf("%s(RT%d)", o.Kind, o.MaxFlagged)
}
