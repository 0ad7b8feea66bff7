package progress

import (
	"context"
	"sync"
	"time"

	"github.com/viant/roundtrip/internal/clock"
)

// Delta is an incremental counter change.
type Delta struct {
	Evaluated  int
	Approved   int
	Superseded int
	Stopped    int
	Errors     int
}

// Progress keeps evaluation counters of a run. It is safe for concurrent use.
type Progress struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`

	Evaluated  int `json:"evaluated"`
	Approved   int `json:"approved"`
	Superseded int `json:"superseded"`
	Stopped    int `json:"stopped"`
	Errors     int `json:"errors"`

	mux      sync.Mutex
	onChange func(Snapshot)
}

// Snapshot is a read-only copy of the counters.
type Snapshot struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	Evaluated  int       `json:"evaluated"`
	Approved   int       `json:"approved"`
	Superseded int       `json:"superseded"`
	Stopped    int       `json:"stopped"`
	Errors     int       `json:"errors"`
}

// Update applies d; the onChange callback runs outside the lock.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.Evaluated += d.Evaluated
	p.Approved += d.Approved
	p.Superseded += d.Superseded
	p.Stopped += d.Stopped
	p.Errors += d.Errors
	snapshot := p.snapshot()
	cb := p.onChange
	p.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.snapshot()
}

func (p *Progress) snapshot() Snapshot {
	return Snapshot{
		RunID:      p.RunID,
		StartedAt:  p.StartedAt,
		Evaluated:  p.Evaluated,
		Approved:   p.Approved,
		Superseded: p.Superseded,
		Stopped:    p.Stopped,
		Errors:     p.Errors,
	}
}

// OnChange registers a callback invoked after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}

// New creates a tracker for runID
func New(runID string, onChange func(Snapshot)) *Progress {
	return &Progress{RunID: runID, StartedAt: clock.Now(), onChange: onChange}
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// WithNewTracker creates a tracker and embeds it in a derived context.
func WithNewTracker(ctx context.Context, runID string, onChange func(Snapshot)) (context.Context, *Progress) {
	tracker := New(runID, onChange)
	return WithTracker(ctx, tracker), tracker
}

// FromContext returns the tracker carried by ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok && tr != nil
}

// UpdateCtx applies d to the tracker in ctx, if any.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
