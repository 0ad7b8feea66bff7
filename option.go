package roundtrip

import (
	"log/slog"
	"time"

	"github.com/viant/roundtrip/model/types"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/secret"
	"github.com/viant/roundtrip/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Option func(s *Service)

// WithConfig sets the configuration; nil keeps DefaultConfig.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithStore uses store instead of opening the configured one.
func WithStore(store eventstore.Storage) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSecretService sets the service revealing store credentials
func WithSecretService(secrets *secret.Service) Option {
	return func(s *Service) {
		s.secrets = secrets
	}
}

// WithExtensionServices registers additional named components
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithNow overrides the clock used for recorded events.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTracingExporter configures OpenTelemetry with a custom SpanExporter;
// the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
