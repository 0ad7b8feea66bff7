package processor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/progress"
	"github.com/viant/roundtrip/service/approver"
	"github.com/viant/roundtrip/service/event"
	"github.com/viant/roundtrip/service/eventstore/memory"
	"github.com/viant/roundtrip/service/messaging"
	queue "github.com/viant/roundtrip/service/messaging/memory"
	"github.com/viant/roundtrip/service/result"
)

var (
	testNow    = time.Date(2016, 2, 3, 4, 5, 6, 0, time.UTC)
	testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func seedStore(t *testing.T, batchID string, flags ...bool) *memory.Service {
	store := memory.New()
	for i, flagged := range flags {
		require.NoError(t, store.AddRoundTrip(context.Background(), batchID, i+1))
		if flagged {
			require.NoError(t, store.AddEvent(context.Background(), batchID, i+1, model.NewEvent(model.EventManualQAFlagged, "qa", testNow, "", true)))
		}
	}
	return store
}

func newTestProcessor(t *testing.T, evaluator Evaluator, store *memory.Service, opts ...Option) (*Service, *event.Publisher[Notification]) {
	publisher := event.NewPublisher[Notification](queue.NewQueue[event.Event[Notification]](queue.DefaultConfig()))
	opts = append([]Option{
		WithMessageQueue(queue.NewQueue[model.Batch](queue.Config{MaxRetries: 1, RetryDelay: time.Millisecond, DeadLetter: true})),
		WithSink(store),
		WithPublisher(publisher),
		WithLogger(testLogger),
		WithNow(func() time.Time { return testNow }),
	}, opts...)
	srv, err := New(evaluator, opts...)
	require.NoError(t, err)
	return srv, publisher
}

func TestService_Evaluate(t *testing.T) {
	type testCase struct {
		name          string
		roundTrip     int
		expectOutcome string
		expectSuccess bool
		expectEvents  []string
	}

	tests := []testCase{
		{name: "approved", roundTrip: 2, expectOutcome: "approved", expectSuccess: true, expectEvents: []string{model.EventManualQAFlagged, model.EventRoundtripApproved}},
		{name: "superseded", roundTrip: 1, expectOutcome: "superseded", expectEvents: []string{model.EventRoundtripApproved}},
		{name: "premature", roundTrip: 3, expectOutcome: "premature", expectEvents: []string{model.EventManualStopped, model.EventRoundtripApproved}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store := seedStore(t, "4000", false, true, false)
			srv, publisher := newTestProcessor(t, approver.New(store, store, approver.WithLogger(testLogger)), store)

			notification, err := srv.Evaluate(ctx, model.NewBatch("4000", tc.roundTrip))
			require.NoError(t, err)
			assert.Equal(t, tc.expectOutcome, notification.Outcome)
			assert.Equal(t, tc.expectSuccess, notification.Success)
			assert.Equal(t, 2, notification.MaxFlagged)

			roundTrips, err := store.AllRoundTrips(ctx, "4000")
			require.NoError(t, err)
			current := model.History(roundTrips).Lookup(tc.roundTrip)
			var ids []string
			for _, e := range current.Events {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tc.expectEvents, ids)
			recorded := current.Events[len(current.Events)-1]
			assert.Equal(t, approver.DefaultSource, recorded.Actor)
			assert.Equal(t, testNow, recorded.Timestamp)
			assert.Equal(t, tc.expectSuccess, recorded.Success)
			assert.JSONEq(t, notification.Report, recorded.Details)

			published, err := publisher.Consume(ctx)
			require.NoError(t, err)
			assert.Equal(t, EventTypeEvaluated, published.Context.EventType)
			assert.Equal(t, *notification, published.Data)
			assert.Equal(t, 1, srv.Progress().Snapshot().Evaluated)
		})
	}
}

func TestService_Evaluate_WithoutRecord(t *testing.T) {
	store := seedStore(t, "4000", true)
	srv, err := New(approver.New(store, store, approver.WithLogger(testLogger)),
		WithMessageQueue(queue.NewQueue[model.Batch](queue.DefaultConfig())),
		WithConfig(Config{WorkerCount: 1}),
		WithLogger(testLogger))
	require.NoError(t, err)

	notification, err := srv.Evaluate(context.Background(), model.NewBatch("4000", 1))
	require.NoError(t, err)
	assert.True(t, notification.Success)
	roundTrips, err := store.AllRoundTrips(context.Background(), "4000")
	require.NoError(t, err)
	assert.Len(t, roundTrips[0].Events, 1)
}

type stubEvaluator struct {
	err     error
	calls   int32
	active  sync.Map
	overlap int32
}

func (e *stubEvaluator) Source() string { return "stub" }

func (e *stubEvaluator) Evaluate(_ context.Context, batch *model.Batch, collector result.Collector) (approver.Outcome, error) {
	atomic.AddInt32(&e.calls, 1)
	counter, _ := e.active.LoadOrStore(batch.BatchID, new(int32))
	if atomic.AddInt32(counter.(*int32), 1) > 1 {
		atomic.StoreInt32(&e.overlap, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(counter.(*int32), -1)
	if e.err != nil {
		return approver.Outcome{}, e.err
	}
	return approver.Approved(batch.RoundTripNumber), nil
}

func TestService_Workers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := memory.New()
	evaluator := &stubEvaluator{}
	srv, _ := newTestProcessor(t, evaluator, store, WithWorkers(4), WithPublisher(nil))
	runCtx, tracker := progress.WithNewTracker(ctx, "run", nil)
	require.NoError(t, srv.Start(runCtx))
	assert.Error(t, srv.Start(runCtx))

	const batches, roundTrips = 3, 10
	for b := 0; b < batches; b++ {
		for rt := 1; rt <= roundTrips; rt++ {
			require.NoError(t, srv.Submit(ctx, model.NewBatch(string(rune('A'+b)), rt)))
		}
	}
	assert.Eventually(t, func() bool {
		return tracker.Snapshot().Evaluated == batches*roundTrips
	}, 5*time.Second, 5*time.Millisecond)
	srv.Shutdown()

	assert.Equal(t, int32(0), atomic.LoadInt32(&evaluator.overlap), "evaluations of a batch must not overlap")
	assert.Equal(t, batches*roundTrips, tracker.Snapshot().Approved)
	assert.Equal(t, 0, srv.locks.size())
	for b := 0; b < batches; b++ {
		roundTrips, err := store.AllRoundTrips(ctx, string(rune('A'+b)))
		require.NoError(t, err)
		assert.Len(t, roundTrips, 10)
	}
}

func TestService_InfrastructureError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store := memory.New()
	evaluator := &stubEvaluator{err: errors.New("history unavailable")}
	work := queue.NewQueue[model.Batch](queue.Config{MaxRetries: 2, RetryDelay: time.Millisecond, DeadLetter: true})
	srv, publisher := newTestProcessor(t, evaluator, store, WithMessageQueue(work), WithWorkers(1))
	require.NoError(t, srv.Start(ctx))
	require.NoError(t, srv.Submit(ctx, model.NewBatch("4000", 1)))

	assert.Eventually(t, func() bool { return work.DLQSize() == 1 }, 5*time.Second, 5*time.Millisecond)
	srv.Shutdown()
	assert.Equal(t, int32(3), atomic.LoadInt32(&evaluator.calls))
	assert.Equal(t, 3, srv.Progress().Snapshot().Errors)

	published, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "history unavailable", published.Data.Error)
	assert.False(t, published.Data.Success)
	roundTrips, err := store.AllRoundTrips(ctx, "4000")
	require.NoError(t, err)
	assert.Empty(t, roundTrips, "nothing is recorded for a failed evaluation")
}

func newBufferedProcessor(t *testing.T, evaluator Evaluator, publishTimeout time.Duration) (*Service, *event.Publisher[Notification]) {
	publisher := event.NewPublisher[Notification](queue.NewQueue[event.Event[Notification]](queue.Config{QueueBuffer: 1}))
	srv, _ := newTestProcessor(t, evaluator, memory.New(),
		WithPublisher(publisher),
		WithConfig(Config{WorkerCount: 1, RecordApproval: true, PublishTimeout: publishTimeout}))
	return srv, publisher
}

func evaluateAsync(t *testing.T, srv *Service, count int) <-chan struct{} {
	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := srv.Evaluate(context.Background(), model.NewBatch("4000", 1))
			assert.NoError(t, err)
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func TestService_Evaluate_FullNotificationBuffer(t *testing.T) {
	evaluator := &stubEvaluator{}
	srv, publisher := newBufferedProcessor(t, evaluator, 10*time.Millisecond)

	select {
	case <-evaluateAsync(t, srv, 3):
	case <-time.After(2 * time.Second):
		t.Fatal("evaluations blocked on a full notification buffer")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&evaluator.calls))
	assert.Equal(t, 3, srv.Progress().Snapshot().Evaluated)
	assert.Equal(t, 0, srv.locks.size())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := publisher.Consume(ctx)
	require.NoError(t, err)
	_, err = publisher.Consume(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "notifications beyond the buffer are dropped")
}

func TestService_Evaluate_SlowNotificationConsumer(t *testing.T) {
	evaluator := &stubEvaluator{}
	srv, publisher := newBufferedProcessor(t, evaluator, 5*time.Second)

	done := evaluateAsync(t, srv, 3)
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&evaluator.calls) == 3
	}, time.Second, time.Millisecond, "pending notifications do not hold the batch lock")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		_, err := publisher.Consume(ctx)
		require.NoError(t, err)
	}
	<-done
	assert.Equal(t, 0, srv.locks.size())
}

func TestNew_Validation(t *testing.T) {
	work := queue.NewQueue[model.Batch](queue.DefaultConfig())
	type testCase struct {
		name      string
		evaluator Evaluator
		options   []Option
	}
	tests := []testCase{
		{name: "missing evaluator", options: []Option{WithMessageQueue(work), WithSink(memory.New())}},
		{name: "missing queue", evaluator: &stubEvaluator{}, options: []Option{WithSink(memory.New())}},
		{name: "missing sink", evaluator: &stubEvaluator{}, options: []Option{WithMessageQueue(work)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.evaluator, tc.options...)
			assert.Error(t, err)
		})
	}
}

func TestService_Submit_Invalid(t *testing.T) {
	srv, _ := newTestProcessor(t, &stubEvaluator{}, memory.New())
	assert.Error(t, srv.Submit(context.Background(), nil))
	_, err := srv.Evaluate(context.Background(), model.NewBatch("", 1))
	assert.Error(t, err)
}

var _ messaging.Queue[model.Batch] = (*queue.Queue[model.Batch])(nil)
