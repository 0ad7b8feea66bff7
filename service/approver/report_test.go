package approver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/result"
)

type appended struct {
	batchID   string
	roundTrip int
	event     *model.Event
}

type recordingSink struct {
	mux    sync.Mutex
	events []appended
	err    error
}

func (s *recordingSink) AddEvent(_ context.Context, batchID string, roundTrip int, event *model.Event) error {
	if s.err != nil {
		return s.err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.events = append(s.events, appended{batchID: batchID, roundTrip: roundTrip, event: event})
	return nil
}

type failureOnlyCollector struct {
	failures []string
}

func (c *failureOnlyCollector) AddFailure(fullID, category, source, message string) {
	c.failures = append(c.failures, fullID+"|"+category+"|"+source+"|"+message)
}

var stoppedAt = time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestReporter() *Reporter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReporter("RoundtripApprover", logger, func() time.Time { return stoppedAt })
}

func TestReporter_Report(t *testing.T) {
	type testCase struct {
		name          string
		outcome       Outcome
		batch         *model.Batch
		expectFailure string
		expectSuccess bool
		expectStopped bool
	}

	tests := []testCase{
		{
			name:          "approved",
			outcome:       Approved(2),
			batch:         model.NewBatch("400022028241", 2),
			expectSuccess: true,
		},
		{
			name:          "superseded",
			outcome:       SupersededBy(2),
			batch:         model.NewBatch("400022028241", 1),
			expectFailure: "Round trip is superseded by a later round trip (RT2) which is approved.",
		},
		{
			name:          "premature",
			outcome:       PrematureBlock(1),
			batch:         model.NewBatch("400022028241", 2),
			expectFailure: "Round trip is preceded by an earlier round trip (RT1) which has been approved.",
			expectStopped: true,
		},
		{
			name:          "premature with nothing flagged",
			outcome:       PrematureBlock(0),
			batch:         model.NewBatch("400022028241", 3),
			expectFailure: "Round trip is preceded by an earlier round trip (RT0) which has been approved.",
			expectStopped: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := &recordingSink{}
			collector := result.New()
			err := newTestReporter().Report(context.Background(), tc.outcome, tc.batch, sink, collector)
			require.NoError(t, err)

			if tc.expectFailure == "" {
				assert.False(t, collector.HasFailures())
			} else {
				failures := collector.Failures()
				require.Len(t, failures, 1)
				assert.Equal(t, tc.batch.FullID(), failures[0].FullID)
				assert.Equal(t, result.CategoryException, failures[0].Category)
				assert.Equal(t, "RoundtripApprover", failures[0].Source)
				assert.Equal(t, tc.expectFailure, failures[0].Message)
			}
			assert.Equal(t, tc.expectSuccess, len(collector.Successes()) == 1)

			if !tc.expectStopped {
				assert.Empty(t, sink.events)
				return
			}
			require.Len(t, sink.events, 1)
			actual := sink.events[0]
			assert.Equal(t, tc.batch.BatchID, actual.batchID)
			assert.Equal(t, tc.batch.RoundTripNumber, actual.roundTrip)
			assert.Equal(t, model.EventManualStopped, actual.event.ID)
			assert.Equal(t, "RoundtripApprover", actual.event.Actor)
			assert.Equal(t, StoppedDetails, actual.event.Details)
			assert.Equal(t, stoppedAt, actual.event.Timestamp)
			assert.True(t, actual.event.Success)
		})
	}
}

func TestReporter_ReportTwice(t *testing.T) {
	sink := &recordingSink{}
	collector := &failureOnlyCollector{}
	reporter := newTestReporter()
	batch := model.NewBatch("400022028241", 2)

	for i := 0; i < 2; i++ {
		require.NoError(t, reporter.Report(context.Background(), PrematureBlock(1), batch, sink, collector))
	}
	assert.Len(t, sink.events, 2)
	assert.Len(t, collector.failures, 2)
}

func TestReporter_SinkError(t *testing.T) {
	sinkErr := errors.New("connection refused")
	sink := &recordingSink{err: sinkErr}
	collector := &failureOnlyCollector{}

	err := newTestReporter().Report(context.Background(), PrematureBlock(1), model.NewBatch("4000", 2), sink, collector)
	assert.ErrorIs(t, err, sinkErr)
	assert.Contains(t, err.Error(), "B4000-RT2")
	assert.Len(t, collector.failures, 1, "failure is recorded before the append")
}

func TestReporter_ApprovedWithoutSuccessRecorder(t *testing.T) {
	collector := &failureOnlyCollector{}
	err := newTestReporter().Report(context.Background(), Approved(0), model.NewBatch("4000", 0), &recordingSink{}, collector)
	assert.NoError(t, err)
	assert.Empty(t, collector.failures)
}

func TestReporter_UnknownKind(t *testing.T) {
	err := newTestReporter().Report(context.Background(), Outcome{Kind: Kind(9)}, model.NewBatch("4000", 1), &recordingSink{}, &failureOnlyCollector{})
	assert.Error(t, err)
}
