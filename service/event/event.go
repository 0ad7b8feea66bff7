package event

import (
	"time"

	"github.com/viant/roundtrip/internal/clock"
)

// Context identifies what an event is about.
type Context struct {
	BatchID     string `json:"batchId"`
	RoundTrip   int    `json:"roundTrip"`
	EventType   string `json:"eventType"`
	Source      string `json:"source"`
	TimeTakenMs int    `json:"timeTakenMs"`
}

// Event is a typed envelope published to listeners
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
