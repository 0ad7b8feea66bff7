package approver

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/viant/roundtrip/extension"
	"github.com/viant/roundtrip/internal/clock"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/model/types"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/result"
	"github.com/viant/roundtrip/tracing"
)

const (
	// Name is the component name under which the approver is registered.
	Name = "roundtrip/approver"

	// DefaultSource is the actor recorded on failures and Manual_Stopped events.
	DefaultSource = "RoundtripApprover"

	methodApprove = "approve"
)

// Service decides whether a round trip is the approved one for its batch.
type Service struct {
	provider eventstore.Provider
	sink     eventstore.Sink
	reporter *Reporter
	source   string
	strict   bool
	logger   *slog.Logger
	now      func() time.Time
}

// Source returns the actor name used in records
func (s *Service) Source() string {
	return s.source
}

// Evaluate loads the batch history, decides and reports the outcome. Business
// failures go to collector; history or sink failures are returned.
func (s *Service) Evaluate(ctx context.Context, batch *model.Batch, collector result.Collector) (outcome Outcome, err error) {
	if batch == nil || batch.BatchID == "" {
		return Outcome{}, fmt.Errorf("%w: missing batch id", ErrInvalidHistory)
	}
	if collector == nil {
		return Outcome{}, fmt.Errorf("collector was nil for %s", batch.FullID())
	}
	ctx, span := tracing.StartSpan(ctx, "approver.Evaluate", tracing.KindInternal)
	span.WithAttributes(tracing.RoundTripAttributes(batch.BatchID, batch.RoundTripNumber))
	defer func() {
		if err == nil {
			span.WithAttributes(map[string]string{"outcome": outcome.Kind.String()}).WithInt("max.flagged", outcome.MaxFlagged)
		}
		tracing.EndSpan(span, err)
	}()

	s.logger.InfoContext(ctx, "Checking approval for", "fullID", batch.FullID())
	history, err := s.provider.AllRoundTrips(ctx, batch.BatchID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load round trips of batch %s: %w", batch.BatchID, err)
	}
	if s.strict && len(history) > 0 && model.History(history).Lookup(batch.RoundTripNumber) == nil {
		return Outcome{}, fmt.Errorf("%w: %s missing from its batch history", ErrInvalidHistory, batch.FullID())
	}
	if outcome, err = Decide(batch, history); err != nil {
		return Outcome{}, err
	}
	s.logger.DebugContext(ctx, "decided", "fullID", batch.FullID(), "outcome", outcome.String())
	if err = s.reporter.Report(ctx, outcome, batch, s.sink, collector); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// ApproveInput identifies the round trip to evaluate.
type ApproveInput struct {
	BatchID   string `json:"batchId" yaml:"batchId"`
	RoundTrip int    `json:"roundTrip" yaml:"roundTrip"`
}

// ApproveOutput carries the outcome of the approve method.
type ApproveOutput struct {
	FullID     string          `json:"fullId"`
	Outcome    string          `json:"outcome"`
	MaxFlagged int             `json:"maxFlagged"`
	Approved   bool            `json:"approved"`
	Failures   []*result.Entry `json:"failures,omitempty"`
	Report     string          `json:"report,omitempty"`
}

// Name returns the component name
func (s *Service) Name() string {
	return Name
}

// Methods returns the component methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        methodApprove,
			Description: "Evaluates a round trip against the manual QA history of its batch.",
			Input:       reflect.TypeOf(&ApproveInput{}),
			Output:      reflect.TypeOf(&ApproveOutput{}),
		},
	}
}

// Method returns the executable of a named method
func (s *Service) Method(name string) (types.Executable, error) {
	switch name {
	case methodApprove:
		return s.approve, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

// InitTypes registers the method input and output types.
func (s *Service) InitTypes(registry *extension.Types) {
	registry.RegisterType(reflect.TypeOf(ApproveInput{}))
	registry.RegisterType(reflect.TypeOf(ApproveOutput{}))
}

func (s *Service) approve(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ApproveInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ApproveOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	collector := result.New()
	batch := model.NewBatch(input.BatchID, input.RoundTrip)
	outcome, err := s.Evaluate(ctx, batch, collector)
	if err != nil {
		return err
	}
	output.FullID = batch.FullID()
	output.Outcome = outcome.Kind.String()
	output.MaxFlagged = outcome.MaxFlagged
	output.Approved = outcome.IsApproved()
	output.Failures = collector.Failures()
	output.Report = collector.Report()
	return nil
}

// New creates an approver reading history from provider and writing blocking
// events to sink.
func New(provider eventstore.Provider, sink eventstore.Sink, opts ...Option) *Service {
	ret := &Service{
		provider: provider,
		sink:     sink,
		source:   DefaultSource,
		strict:   true,
		now:      clock.Now,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	ret.logger = ret.logger.With("component", Name)
	ret.reporter = NewReporter(ret.source, ret.logger, ret.now)
	return ret
}

var (
	_ types.Service            = (*Service)(nil)
	_ extension.DataTypeIniter = (*Service)(nil)
)
