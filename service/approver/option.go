package approver

import (
	"log/slog"
	"time"
)

type Option func(*Service)

// WithSource sets the actor/source name used in failure records and events.
func WithSource(source string) Option {
	return func(s *Service) {
		if source != "" {
			s.source = source
		}
	}
}

// WithStrictHistory controls whether a non-empty history that does not contain
// the evaluated round trip is rejected. It is on by default.
func WithStrictHistory(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNow overrides the clock used to timestamp Manual_Stopped events.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}
