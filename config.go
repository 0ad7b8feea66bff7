package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/afs"
	"github.com/viant/roundtrip/internal/env"
	"github.com/viant/roundtrip/service/approver"
	"github.com/viant/roundtrip/service/eventstore/factory"
	"github.com/viant/roundtrip/service/messaging/memory"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the approver configuration.
// Fields left out of a loaded document keep their DefaultConfig values.
type Config struct {
	Component ComponentConfig `json:"component" yaml:"component"`
	Store     factory.Config  `json:"store" yaml:"store"`
	Processor ProcessorConfig `json:"processor" yaml:"processor"`
	Tracing   TracingConfig   `json:"tracing" yaml:"tracing"`
}

// ComponentConfig configures the approver itself.
type ComponentConfig struct {
	Source        string `json:"source" yaml:"source"`
	StrictHistory bool   `json:"strictHistory" yaml:"strictHistory"`
}

type ProcessorConfig struct {
	WorkerCount    int           `json:"workers" yaml:"workers"`
	RecordApproval bool          `json:"recordApproval" yaml:"recordApproval"`
	Queue          memory.Config `json:"queue" yaml:"queue"`
	// NotificationBuffer enables evaluation notifications when > 0.
	NotificationBuffer int `json:"notificationBuffer,omitempty" yaml:"notificationBuffer,omitempty"`
	// NotificationTimeout bounds each notification publish; notifications
	// that do not fit the buffer in time are dropped.
	NotificationTimeout time.Duration `json:"notificationTimeout,omitempty" yaml:"notificationTimeout,omitempty"`
}

type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	OutputFile     string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns an in-memory configuration recording Roundtrip_Approved events.
func DefaultConfig() *Config {
	return &Config{
		Component: ComponentConfig{Source: approver.DefaultSource, StrictHistory: true},
		Store:     factory.Config{Vendor: factory.VendorMemory},
		Processor: ProcessorConfig{
			WorkerCount:    4,
			RecordApproval: true,
			Queue:          memory.DefaultConfig(),

			NotificationTimeout: 100 * time.Millisecond,
		},
		Tracing: TracingConfig{ServiceName: "rtapprover", ServiceVersion: "1.0.0"},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Component.Source == "" {
		errs = append(errs, fmt.Errorf("component.source is required"))
	}
	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Processor.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("processor.workers must be > 0"))
	}
	if c.Processor.NotificationBuffer < 0 {
		errs = append(errs, fmt.Errorf("processor.notificationBuffer must be >= 0"))
	}
	if c.Processor.NotificationTimeout < 0 {
		errs = append(errs, fmt.Errorf("processor.notificationTimeout must be >= 0"))
	}
	if c.Processor.Queue.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("processor.queue.maxRetries must be >= 0"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML (or JSON) document from any afs URL, expanding
// ${env.KEY} expressions before decoding it over DefaultConfig.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	return DecodeConfig([]byte(env.Expand(string(data))))
}

// DecodeConfig decodes data over DefaultConfig and validates the result.
func DecodeConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
