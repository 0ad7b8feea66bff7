package roundtrip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/roundtrip/extension"
	"github.com/viant/roundtrip/internal/clock"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/model/types"
	"github.com/viant/roundtrip/service/approver"
	"github.com/viant/roundtrip/service/event"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/eventstore/factory"
	"github.com/viant/roundtrip/service/messaging/memory"
	"github.com/viant/roundtrip/service/processor"
	"github.com/viant/roundtrip/service/secret"
	"github.com/viant/roundtrip/tracing"
)

// Service wires the event store, approver and processor.
type Service struct {
	config            *Config
	store             eventstore.Storage
	secrets           *secret.Service
	approver          *approver.Service
	processor         *processor.Service
	queue             *memory.Queue[model.Batch]
	notifications     *event.Publisher[processor.Notification]
	actions           *extension.Actions
	extensionServices []types.Service
	logger            *slog.Logger
	now               func() time.Time
}

// Approve evaluates a single round trip.
func (s *Service) Approve(ctx context.Context, batchID string, roundTrip int) (*processor.Notification, error) {
	return s.processor.Evaluate(ctx, model.NewBatch(batchID, roundTrip))
}

// EvaluateBatch evaluates every known round trip of batchID in ascending order.
// It stops at the first infrastructure error.
func (s *Service) EvaluateBatch(ctx context.Context, batchID string) ([]*processor.Notification, error) {
	history, err := s.History(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, fmt.Errorf("batch %s has no round trips", batchID)
	}
	var ret []*processor.Notification
	for _, roundTrip := range history {
		notification, err := s.processor.Evaluate(ctx, model.NewBatch(batchID, roundTrip.RoundTripNumber))
		if err != nil {
			return ret, err
		}
		ret = append(ret, notification)
	}
	return ret, nil
}

// History returns the validated round trips of batchID.
func (s *Service) History(ctx context.Context, batchID string) (model.History, error) {
	roundTrips, err := s.store.AllRoundTrips(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	history := model.History(roundTrips)
	if err = history.Validate(batchID); err != nil {
		return nil, err
	}
	return history, nil
}

// Flag appends a Manual_QA_Flagged event on behalf of actor.
func (s *Service) Flag(ctx context.Context, batchID string, roundTrip int, actor, details string) error {
	flagged := model.NewEvent(model.EventManualQAFlagged, actor, s.now(), details, true)
	if err := s.store.AddEvent(ctx, batchID, roundTrip, flagged); err != nil {
		return fmt.Errorf("failed to flag %s: %w", model.FullID(batchID, roundTrip), err)
	}
	return nil
}

// Register records a round trip of batchID that has no events yet.
func (s *Service) Register(ctx context.Context, batchID string, roundTrip int) error {
	if err := s.store.AddRoundTrip(ctx, batchID, roundTrip); err != nil {
		return fmt.Errorf("failed to register %s: %w", model.FullID(batchID, roundTrip), err)
	}
	return nil
}

// Submit queues a round trip for the background workers started with Start.
func (s *Service) Submit(ctx context.Context, batchID string, roundTrip int) error {
	return s.processor.Submit(ctx, model.NewBatch(batchID, roundTrip))
}

// Start launches the processor workers.
func (s *Service) Start(ctx context.Context) error {
	return s.processor.Start(ctx)
}

func (s *Service) Config() *Config { return s.config }

func (s *Service) Store() eventstore.Storage { return s.store }

func (s *Service) Approver() *approver.Service { return s.approver }

func (s *Service) Processor() *processor.Service { return s.processor }

// Queue returns the work queue, exposing its dead letters.
func (s *Service) Queue() *memory.Queue[model.Batch] { return s.queue }

// Notifications returns the publisher of evaluation notifications, nil unless
// processor.notificationBuffer is set. Once the buffer is full, notifications
// are dropped after processor.notificationTimeout.
func (s *Service) Notifications() *event.Publisher[processor.Notification] {
	return s.notifications
}

// Actions returns the registry of named components.
func (s *Service) Actions() *extension.Actions { return s.actions }

// Close stops the workers and releases the store.
func (s *Service) Close() error {
	s.processor.Shutdown()
	return s.store.Close()
}

func (s *Service) init(ctx context.Context) error {
	cfg := s.config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
	}
	if s.store == nil {
		store, err := factory.New(ctx, &cfg.Store, s.secrets)
		if err != nil {
			return fmt.Errorf("failed to open %v store: %w", cfg.Store.Vendor, err)
		}
		s.store = store
	}
	s.approver = approver.New(s.store, s.store,
		approver.WithSource(cfg.Component.Source),
		approver.WithStrictHistory(cfg.Component.StrictHistory),
		approver.WithLogger(s.logger),
		approver.WithNow(s.now))
	s.queue = memory.NewQueue[model.Batch](cfg.Processor.Queue)
	options := []processor.Option{
		processor.WithConfig(processor.Config{
			WorkerCount:    cfg.Processor.WorkerCount,
			RecordApproval: cfg.Processor.RecordApproval,
			PublishTimeout: cfg.Processor.NotificationTimeout,
		}),
		processor.WithMessageQueue(s.queue),
		processor.WithSink(s.store),
		processor.WithLogger(s.logger),
		processor.WithNow(s.now),
	}
	if cfg.Processor.NotificationBuffer > 0 {
		s.notifications = event.NewPublisher[processor.Notification](memory.NewQueue[event.Event[processor.Notification]](memory.Config{QueueBuffer: cfg.Processor.NotificationBuffer}))
		options = append(options, processor.WithPublisher(s.notifications))
	}
	var err error
	if s.processor, err = processor.New(s.approver, options...); err != nil {
		return err
	}
	s.actions = extension.NewActions()
	s.actions.Register(s.approver)
	for _, service := range s.extensionServices {
		s.actions.Register(service)
	}
	return nil
}

// New creates a service; without options it runs on an in-memory store.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig(), now: clock.Now}
	for _, option := range options {
		option(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if err := ret.init(ctx); err != nil {
		return nil, err
	}
	return ret, nil
}
