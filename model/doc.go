// Package model contains the in-memory representation of batches, their
// round trips and the events recorded against them.
//
// A batch is a physical unit of digitized material; every attempt to process
// it is a round trip identified by a sequential number.  Each round trip
// carries the ordered list of events that the event store holds for it.
package model
