package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/loopline-ai/loopline-go/messages"
	"github.com/loopline-ai/loopline-go/provider"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	batches [][]json.RawMessage
	fail    int // fail this many submissions before succeeding
}

func (f *fakeSubmitter) TrackBatch(_ context.Context, events []json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.New("backend unavailable")
	}
	f.batches = append(f.batches, events)
	return nil
}

func (f *fakeSubmitter) received() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []json.RawMessage
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

// blockingSubmitter parks inside TrackBatch until released, signalling on
// entered when a submission starts. It honors ctx like the real transport.
type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingSubmitter) TrackBatch(ctx context.Context, _ []json.RawMessage) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func testEvent(id string) Event {
	return Event{
		ID:   id,
		Kind: KindLLMCall,
		Call: provider.CallInfo{Provider: "openai", Model: "gpt-4o-mini"},
		Messages: []messages.Message{
			messages.User("hello"),
		},
	}
}

func TestEnqueueAndFlush(t *testing.T) {
	sub := &fakeSubmitter{}
	tr, err := New(sub, Interval(10*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(testEvent("ev-1")))
	require.NoError(t, tr.Enqueue(testEvent("ev-2")))

	require.NoError(t, tr.Close(context.Background()))

	all := sub.received()
	require.Len(t, all, 2)
	assert.Equal(t, "ev-1", gjson.GetBytes(all[0], "id").String())
	assert.Equal(t, KindLLMCall, gjson.GetBytes(all[0], "kind").String())
	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(all[0], "call.model").String())
}

func TestEnqueueFillsDefaults(t *testing.T) {
	sub := &fakeSubmitter{}
	tr, err := New(sub)
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(Event{Kind: KindConversation}))
	require.NoError(t, tr.Close(context.Background()))

	all := sub.received()
	require.Len(t, all, 1)
	assert.NotEmpty(t, gjson.GetBytes(all[0], "id").String())
	assert.NotEmpty(t, gjson.GetBytes(all[0], "timestamp").String())
}

func TestBatchSizeTriggersFlush(t *testing.T) {
	sub := &fakeSubmitter{}
	tr, err := New(sub, BatchSize(2), Interval(time.Hour))
	require.NoError(t, err)
	defer tr.Close(context.Background()) //nolint:errcheck

	require.NoError(t, tr.Enqueue(testEvent("a")))
	require.NoError(t, tr.Enqueue(testEvent("b")))

	assert.Eventually(t, func() bool {
		return len(sub.received()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestByteBudgetEvictsOldest(t *testing.T) {
	sub := &fakeSubmitter{}
	// budget fits roughly two marshaled events
	tr, err := New(sub, MaxBytes(400), Interval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(testEvent("old-1")))
	require.NoError(t, tr.Enqueue(testEvent("old-2")))
	require.NoError(t, tr.Enqueue(testEvent("new-1")))
	require.NoError(t, tr.Enqueue(testEvent("new-2")))

	require.NoError(t, tr.Close(context.Background()))

	ids := make([]string, 0, 4)
	for _, raw := range sub.received() {
		ids = append(ids, gjson.GetBytes(raw, "id").String())
	}
	assert.NotContains(t, ids, "old-1")
	assert.Contains(t, ids, "new-2")
}

func TestRetriesTransientFailures(t *testing.T) {
	sub := &fakeSubmitter{fail: 1}
	tr, err := New(sub, Interval(10*time.Millisecond), MaxRetries(3))
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(testEvent("retry-me")))
	require.NoError(t, tr.Close(context.Background()))

	require.Len(t, sub.received(), 1)
}

func TestEnqueueAfterClose(t *testing.T) {
	tr, err := New(&fakeSubmitter{})
	require.NoError(t, err)
	require.NoError(t, tr.Close(context.Background()))

	assert.ErrorIs(t, tr.Enqueue(testEvent("late")), ErrClosed)

	// closing twice is a no-op
	assert.NoError(t, tr.Close(context.Background()))
}

func TestNewValidatesSubmitter(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestPendingIncludesInflightBatches(t *testing.T) {
	sub := &blockingSubmitter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	tr, err := New(sub, BatchSize(1), Interval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(testEvent("busy")))

	// the batch has left the queue but the submission has not returned yet
	<-sub.entered
	assert.Equal(t, 1, tr.Pending())

	close(sub.release)
	require.NoError(t, tr.Close(context.Background()))
	assert.Equal(t, 0, tr.Pending())
}

func TestCloseDeadlineCancelsDrain(t *testing.T) {
	sub := &blockingSubmitter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	tr, err := New(sub, BatchSize(1), Interval(time.Hour))
	require.NoError(t, err)

	require.NoError(t, tr.Enqueue(testEvent("stuck")))
	<-sub.entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = tr.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	// the drain was cancelled rather than left retrying in the background
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 0, tr.Pending())
}
