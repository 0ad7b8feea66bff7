// Package messaging defines a generic work queue used to feed round trips to
// the processor workers.
package messaging
