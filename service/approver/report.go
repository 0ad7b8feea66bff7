package approver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/eventstore"
	"github.com/viant/roundtrip/service/result"
)

const (
	supersededMessage = "Round trip is superseded by a later round trip (RT%d) which is approved."
	precededMessage   = "Round trip is preceded by an earlier round trip (RT%d) which has been approved."
	approvedMessage   = "Approved round trip number %d for batch %s."

	// StoppedDetails is the message of the Manual_Stopped event.
	StoppedDetails = "An earlier Roundtrip for this batch has already been approved."
)

// Reporter translates an Outcome into collector records and, for a premature
// round trip, a Manual_Stopped event.
type Reporter struct {
	source string
	logger *slog.Logger
	now    func() time.Time
}

// Report emits the records for outcome. Only a sink failure is returned;
// business failures go to collector.
func (r *Reporter) Report(ctx context.Context, outcome Outcome, batch *model.Batch, sink eventstore.Sink, collector result.Collector) error {
	fullID := batch.FullID()
	switch outcome.Kind {
	case KindApproved:
		message := fmt.Sprintf(approvedMessage, batch.RoundTripNumber, batch.BatchID)
		r.logger.InfoContext(ctx, message, "fullID", fullID)
		if recorder, ok := collector.(result.SuccessRecorder); ok {
			recorder.AddSuccess(fullID, r.source, message)
		}
		return nil
	case KindSuperseded:
		collector.AddFailure(fullID, result.CategoryException, r.source, fmt.Sprintf(supersededMessage, outcome.MaxFlagged))
		return nil
	case KindPrematureBlock:
		collector.AddFailure(fullID, result.CategoryException, r.source, fmt.Sprintf(precededMessage, outcome.MaxFlagged))
		event := model.NewEvent(model.EventManualStopped, r.source, r.now(), StoppedDetails, true)
		if err := sink.AddEvent(ctx, batch.BatchID, batch.RoundTripNumber, event); err != nil {
			return fmt.Errorf("failed to stop %s: %w", fullID, err)
		}
		r.logger.WarnContext(ctx, "round trip stopped", "fullID", fullID, "approved", outcome.MaxFlagged)
		return nil
	}
	return fmt.Errorf("unsupported outcome %v for %s", outcome, fullID)
}

// NewReporter creates a reporter attributing records to source
func NewReporter(source string, logger *slog.Logger, now func() time.Time) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Reporter{source: source, logger: logger, now: now}
}
