package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/viant/roundtrip/internal/clock"
	"github.com/viant/roundtrip/internal/idgen"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/progress"
	"github.com/viant/roundtrip/service/approver"
	"github.com/viant/roundtrip/service/event"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/messaging"
	"github.com/viant/roundtrip/service/result"
	"github.com/viant/roundtrip/tracing"
)

// EventTypeEvaluated is the notification event type.
const EventTypeEvaluated = "roundtrip.evaluated"

// Config represents processor configuration
type Config struct {
	// WorkerCount is the number of workers consuming the queue
	WorkerCount int `json:"workerCount,omitempty" yaml:"workerCount,omitempty"`

	// RecordApproval appends a Roundtrip_Approved event after every evaluation.
	RecordApproval bool `json:"recordApproval,omitempty" yaml:"recordApproval,omitempty"`

	// PublishTimeout bounds a notification publish; a notification that cannot
	// be queued in time is dropped.
	PublishTimeout time.Duration `json:"publishTimeout,omitempty" yaml:"publishTimeout,omitempty"`
}

const defaultPublishTimeout = 100 * time.Millisecond

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:    5,
		RecordApproval: true,
		PublishTimeout: defaultPublishTimeout,
	}
}

// Evaluator decides on a single round trip.
type Evaluator interface {
	Evaluate(ctx context.Context, batch *model.Batch, collector result.Collector) (approver.Outcome, error)
	Source() string
}

// Notification describes a finished evaluation.
type Notification struct {
	FullID     string `json:"fullId"`
	BatchID    string `json:"batchId"`
	RoundTrip  int    `json:"roundTrip"`
	Outcome    string `json:"outcome,omitempty"`
	MaxFlagged int    `json:"maxFlagged"`
	Success    bool   `json:"success"`
	Report     string `json:"report,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Service evaluates round trips taken from a queue
type Service struct {
	config    Config
	evaluator Evaluator
	sink      eventstore.Sink
	queue     messaging.Queue[model.Batch]
	publisher *event.Publisher[Notification]
	progress  *progress.Progress
	logger    *slog.Logger
	now       func() time.Time
	locks     *batchLocks

	workers  []*worker
	workerWg sync.WaitGroup
	mux      sync.Mutex
}

type worker struct {
	id       int
	service  *Service
	ctx      context.Context
	cancelFn context.CancelFunc
}

// Submit queues batch for asynchronous evaluation.
func (s *Service) Submit(ctx context.Context, batch *model.Batch) error {
	if batch == nil || batch.BatchID == "" {
		return fmt.Errorf("batch id was empty")
	}
	if err := s.queue.Publish(ctx, batch); err != nil {
		return fmt.Errorf("failed to submit %s: %w", batch.FullID(), err)
	}
	return nil
}

// Start launches the workers; they stop on Shutdown or when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if len(s.workers) > 0 {
		return fmt.Errorf("processor already started")
	}
	for i := 0; i < s.config.WorkerCount; i++ {
		workerCtx, cancel := context.WithCancel(ctx)
		w := &worker{id: i, service: s, ctx: workerCtx, cancelFn: cancel}
		s.workers = append(s.workers, w)
		s.workerWg.Add(1)
		go w.run()
	}
	return nil
}

func (w *worker) run() {
	defer w.service.workerWg.Done()
	for {
		msg, err := w.service.queue.Consume(w.ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			w.service.logger.Error("failed to consume", "worker", w.id, "error", err)
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := w.service.processMessage(w.ctx, msg); pErr != nil {
			w.service.logger.Error("failed to process message", "worker", w.id, "messageID", msg.ID(), "error", pErr)
		}
	}
}

// processMessage acks business outcomes and nacks infrastructure failures.
func (s *Service) processMessage(ctx context.Context, message messaging.Message[model.Batch]) error {
	ctx, span := tracing.StartSpan(ctx, "processor.processMessage", tracing.KindConsumer)
	batch := message.T()
	span.WithAttributes(tracing.RoundTripAttributes(batch.BatchID, batch.RoundTripNumber)).WithInt("attempt", message.Attempt())
	_, err := s.Evaluate(ctx, batch)
	tracing.EndSpan(span, err)
	if err != nil {
		if nErr := message.Nack(err); nErr != nil {
			return fmt.Errorf("%w, and failed to nack: %v", err, nErr)
		}
		return err
	}
	return message.Ack()
}

// Evaluate runs one evaluation synchronously. The batch lock covers the
// evaluation and the Roundtrip_Approved append; the notification is published
// after the lock is released.
func (s *Service) Evaluate(ctx context.Context, batch *model.Batch) (*Notification, error) {
	if batch == nil || batch.BatchID == "" {
		return nil, fmt.Errorf("batch id was empty")
	}
	started := clock.Now()
	notification, err := s.evaluate(ctx, batch)
	s.publish(ctx, notification, started)
	if err != nil {
		return notification, err
	}
	s.logger.InfoContext(ctx, "evaluated", "fullID", notification.FullID, "outcome", notification.Outcome, "success", notification.Success)
	return notification, nil
}

func (s *Service) evaluate(ctx context.Context, batch *model.Batch) (*Notification, error) {
	unlock := s.locks.lock(batch.BatchID)
	defer unlock()

	collector := result.New()
	notification := &Notification{FullID: batch.FullID(), BatchID: batch.BatchID, RoundTrip: batch.RoundTripNumber}
	outcome, err := s.evaluator.Evaluate(ctx, batch, collector)
	if err == nil && s.config.RecordApproval {
		err = s.recordApproval(ctx, batch, collector)
	}
	notification.Report = collector.Report()
	if err != nil {
		notification.Error = err.Error()
		s.update(ctx, progress.Delta{Errors: 1})
		return notification, err
	}

	notification.Outcome = outcome.Kind.String()
	notification.MaxFlagged = outcome.MaxFlagged
	notification.Success = !collector.HasFailures()
	delta := progress.Delta{Evaluated: 1}
	switch outcome.Kind {
	case approver.KindApproved:
		delta.Approved = 1
	case approver.KindSuperseded:
		delta.Superseded = 1
	case approver.KindPrematureBlock:
		delta.Stopped = 1
	}
	s.update(ctx, delta)
	return notification, nil
}

func (s *Service) recordApproval(ctx context.Context, batch *model.Batch, collector *result.Result) error {
	if s.sink == nil {
		return nil
	}
	approved := model.NewEvent(model.EventRoundtripApproved, s.evaluator.Source(), s.now(), collector.Report(), !collector.HasFailures())
	if err := s.sink.AddEvent(ctx, batch.BatchID, batch.RoundTripNumber, approved); err != nil {
		return fmt.Errorf("failed to record %s for %s: %w", model.EventRoundtripApproved, batch.FullID(), err)
	}
	return nil
}

func (s *Service) update(ctx context.Context, delta progress.Delta) {
	if tracker, ok := progress.FromContext(ctx); ok {
		tracker.Update(delta)
		return
	}
	s.progress.Update(delta)
}

func (s *Service) publish(ctx context.Context, notification *Notification, started time.Time) {
	if s.publisher == nil {
		return
	}
	eventContext := &event.Context{
		BatchID:     notification.BatchID,
		RoundTrip:   notification.RoundTrip,
		EventType:   EventTypeEvaluated,
		Source:      s.evaluator.Source(),
		TimeTakenMs: int(clock.Now().Sub(started).Milliseconds()),
	}
	publishCtx, cancel := context.WithTimeout(ctx, s.config.PublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(publishCtx, event.NewEvent(eventContext, *notification)); err != nil {
		s.logger.WarnContext(ctx, "dropped notification", "fullID", notification.FullID, "error", err)
	}
}

// Progress returns the tracker used when the context carries none.
func (s *Service) Progress() *progress.Progress {
	return s.progress
}

// Shutdown stops the workers and waits for in-flight evaluations.
func (s *Service) Shutdown() {
	s.mux.Lock()
	workers := s.workers
	s.workers = nil
	s.mux.Unlock()
	for _, w := range workers {
		w.cancelFn()
	}
	s.workerWg.Wait()
}

// New creates a processor around evaluator
func New(evaluator Evaluator, options ...Option) (*Service, error) {
	s := &Service{
		config:    DefaultConfig(),
		evaluator: evaluator,
		locks:     newBatchLocks(),
		now:       clock.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if s.queue == nil {
		return nil, fmt.Errorf("message queue is required")
	}
	if s.config.RecordApproval && s.sink == nil {
		return nil, fmt.Errorf("sink is required to record %s", model.EventRoundtripApproved)
	}
	if s.config.WorkerCount <= 0 {
		s.config.WorkerCount = 1
	}
	if s.config.PublishTimeout <= 0 {
		s.config.PublishTimeout = defaultPublishTimeout
	}
	if s.progress == nil {
		s.progress = progress.New(idgen.New(), nil)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "processor")
	return s, nil
}
