// Package result collects the human-readable outcome of evaluating one
// round trip.
package result

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/viant/roundtrip/internal/clock"
)

// CategoryException is the failure category used for business-outcome failures.
const CategoryException = "exception"

// Collector receives failure reports.
type Collector interface {
	AddFailure(fullID, category, source, message string)
}

// SuccessRecorder is implemented by collectors that also keep informational
// success records.
type SuccessRecorder interface {
	AddSuccess(fullID, source, message string)
}

// Entry is one reported record.
type Entry struct {
	FullID     string    `json:"fullId"`
	Category   string    `json:"category,omitempty"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	ReportedAt time.Time `json:"reportedAt"`
}

// Result is a concurrency-safe Collector and SuccessRecorder.
type Result struct {
	mux       sync.RWMutex
	failures  []*Entry
	successes []*Entry
}

// AddFailure records a failure
func (r *Result) AddFailure(fullID, category, source, message string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.failures = append(r.failures, &Entry{FullID: fullID, Category: category, Source: source, Message: message, ReportedAt: clock.Now()})
}

// AddSuccess records an informational success
func (r *Result) AddSuccess(fullID, source, message string) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.successes = append(r.successes, &Entry{FullID: fullID, Source: source, Message: message, ReportedAt: clock.Now()})
}

// HasFailures returns true when at least one failure was recorded.
func (r *Result) HasFailures() bool {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return len(r.failures) > 0
}

// Failures returns a copy of recorded failures.
func (r *Result) Failures() []*Entry {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return append([]*Entry(nil), r.failures...)
}

// Successes returns a copy of recorded successes.
func (r *Result) Successes() []*Entry {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return append([]*Entry(nil), r.successes...)
}

// Report renders the result as JSON; it is stored as event details.
func (r *Result) Report() string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	doc := struct {
		Success   bool     `json:"success"`
		Failures  []*Entry `json:"failures,omitempty"`
		Successes []*Entry `json:"successes,omitempty"`
	}{
		Success:   len(r.failures) == 0,
		Failures:  r.failures,
		Successes: r.successes,
	}
	data, _ := json.Marshal(doc)
	return string(data)
}

// New creates an empty result
func New() *Result {
	return &Result{}
}

var (
	_ Collector       = (*Result)(nil)
	_ SuccessRecorder = (*Result)(nil)
)
