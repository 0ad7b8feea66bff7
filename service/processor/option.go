package processor

import (
	"log/slog"
	"time"

	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/progress"
	"github.com/viant/roundtrip/service/event"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/messaging"
)

type Option func(*Service)

// WithMessageQueue sets the work queue
func WithMessageQueue(queue messaging.Queue[model.Batch]) Option {
	return func(s *Service) {
		s.queue = queue
	}
}

// WithSink sets the sink receiving Roundtrip_Approved events
func WithSink(sink eventstore.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithPublisher sets the notification publisher
func WithPublisher(publisher *event.Publisher[Notification]) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithProgress sets the run tracker used when the context carries none.
func WithProgress(tracker *progress.Progress) Option {
	return func(s *Service) {
		s.progress = tracker
	}
}

// WithWorkers sets the number of worker goroutines
func WithWorkers(count int) Option {
	return func(s *Service) {
		s.config.WorkerCount = count
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNow overrides the clock used for Roundtrip_Approved events.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithConfig sets the configuration for the service
func WithConfig(config Config) Option {
	return func(s *Service) {
		s.config = config
	}
}
