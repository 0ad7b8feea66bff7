// Package approver decides whether a round trip of a batch is the
// authoritative one.
//
// The rule is "latest flagged wins": the highest-numbered round trip that
// carries a Manual_QA_Flagged event is approved.  Any earlier round trip is
// superseded; any later round trip is premature and is permanently blocked by
// appending a Manual_Stopped event to its history.
//
// Decide and MaxFlagged are pure.  Reporter turns an Outcome into collector
// records and, for premature round trips, an event append.  Service combines
// both behind a single Evaluate entry point and is also exposed as a named
// component through the types.Service capability interface.
//
// Evaluations of round trips of the same batch must be serialized by the
// caller; nothing here locks across the read-decide-append sequence.
package approver
