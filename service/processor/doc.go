// Package processor runs round-trip evaluations on a pool of workers fed by a
// messaging queue. Evaluations of the same batch never overlap.
package processor
