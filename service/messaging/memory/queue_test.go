package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workItem struct {
	BatchID   string
	RoundTrip int
}

func testConfig() Config {
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	return config
}

func TestQueue_PublishConsume(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[workItem](testConfig())
	item := &workItem{BatchID: "4000", RoundTrip: 2}

	require.NoError(t, queue.Publish(ctx, item))
	item.RoundTrip = 9
	assert.Equal(t, 1, queue.Size())

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, message.ID())
	assert.Equal(t, 0, message.Attempt())
	assert.Equal(t, workItem{BatchID: "4000", RoundTrip: 2}, *message.T(), "payload is copied on publish")
	assert.NoError(t, message.Ack())
	assert.ErrorIs(t, message.Ack(), ErrProcessed)
	assert.ErrorIs(t, message.Nack(nil), ErrProcessed)
	assert.Error(t, queue.Publish(ctx, nil))
}

func TestQueue_Retries(t *testing.T) {
	type testCase struct {
		name       string
		maxRetries int
		deadLetter bool
		expectDLQ  int
	}

	tests := []testCase{
		{name: "dead letter after retries", maxRetries: 2, deadLetter: true, expectDLQ: 1},
		{name: "no retries", maxRetries: 0, deadLetter: true, expectDLQ: 1},
		{name: "dead letter disabled", maxRetries: 1, deadLetter: false, expectDLQ: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			config := testConfig()
			config.MaxRetries = tc.maxRetries
			config.DeadLetter = tc.deadLetter
			queue := NewQueue[workItem](config)
			require.NoError(t, queue.Publish(ctx, &workItem{BatchID: "4000", RoundTrip: 1}))

			var id string
			for attempt := 0; attempt <= tc.maxRetries; attempt++ {
				message, err := queue.Consume(ctx)
				require.NoError(t, err)
				assert.Equal(t, attempt, message.Attempt())
				if id == "" {
					id = message.ID()
				}
				assert.Equal(t, id, message.ID())
				require.NoError(t, message.Nack(errors.New("store unavailable")))
				queue.WaitRedeliveries()
			}
			assert.Equal(t, 0, queue.Size())
			assert.Equal(t, tc.expectDLQ, queue.DLQSize())
			if tc.expectDLQ > 0 {
				letter := queue.DeadLetters()[0]
				assert.Equal(t, tc.maxRetries+1, letter.Attempts)
				assert.EqualError(t, letter.Err, "store unavailable")
				assert.Equal(t, "4000", letter.Payload.BatchID)
			}
		})
	}
}

func TestQueue_ConsumeCancelled(t *testing.T) {
	queue := NewQueue[workItem](testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, queue.Publish(ctx, &workItem{}), context.Canceled)
}

func TestQueue_Concurrent(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue[workItem](Config{QueueBuffer: 10})
	const producers, perProducer = 4, 25

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, queue.Publish(ctx, &workItem{RoundTrip: i}))
			}
		}(p)
	}

	received := 0
	for received < producers*perProducer {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NoError(t, message.Ack())
		received++
	}
	wg.Wait()
	assert.Equal(t, 0, queue.Size())
}
