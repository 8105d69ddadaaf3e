// Package tracker implements the background processor that batches tracked
// call records and flushes them to the backend. Enqueueing never blocks the
// caller: events wait in a bounded in-memory queue, the oldest entries are
// evicted when the byte budget is exceeded, and a worker goroutine submits
// batches with exponential backoff.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/cenkalti/backoff/v5"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"

	"github.com/loopline-ai/loopline-go/internal/transport"
	"github.com/loopline-ai/loopline-go/messages"
	"github.com/loopline-ai/loopline-go/pkg/slogx"
	"github.com/loopline-ai/loopline-go/pkg/uuidx"
	"github.com/loopline-ai/loopline-go/provider"
	"github.com/loopline-ai/loopline-go/tool"
)

// Event is one tracked record: an LLM call or a conversation turn in the
// normalized message model.
type Event struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Call      provider.CallInfo  `json:"call"`
	Messages  []messages.Message `json:"messages,omitempty"`
	Response  *messages.Message  `json:"response,omitempty"`
	Tools     []tool.Definition  `json:"tools,omitempty"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	Timestamp strfmt.DateTime    `json:"timestamp"`
}

// Event kinds.
const (
	KindLLMCall      = "llm_call"
	KindConversation = "conversation"
)

// Submitter delivers a batch of marshaled events. *transport.Client
// satisfies it. Implementations must honor ctx cancellation or Close
// cannot interrupt an in-progress submission.
type Submitter interface {
	TrackBatch(ctx context.Context, events []json.RawMessage) error
}

// ErrClosed is returned by Enqueue after Close has been called.
var ErrClosed = errors.New("tracker is closed")

const (
	defaultMaxBytes   = 4 << 20 // 4 MiB of queued events
	defaultBatchSize  = 50
	defaultInterval   = 5 * time.Second
	defaultMaxRetries = 3
)

// Tracker is the batching processor. Create one with New and stop it with
// Close; Enqueue is safe for concurrent use.
type Tracker struct {
	submitter Submitter

	maxBytes   int
	batchSize  int
	interval   time.Duration
	maxRetries uint

	mu         sync.Mutex
	queue      []queuedEvent
	queueBytes int
	closed     bool

	inflight *haxmap.Map[string, []json.RawMessage]

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	drainCtx    context.Context
	drainCancel context.CancelFunc
}

type queuedEvent struct {
	id   string
	data json.RawMessage
}

var (
	// MaxBytes caps the total marshaled size of queued events; the oldest
	// events are evicted when a new one would exceed it.
	MaxBytes = opts.ForName[Tracker, int]("maxBytes")
	// BatchSize is the number of events that triggers an immediate flush.
	BatchSize = opts.ForName[Tracker, int]("batchSize")
	// Interval is the periodic flush interval.
	Interval = opts.ForName[Tracker, time.Duration]("interval")
	// MaxRetries bounds the backoff retry attempts per batch submission.
	MaxRetries = opts.ForName[Tracker, uint]("maxRetries")
)

// New creates a Tracker and starts its flush goroutine.
func New(submitter Submitter, options ...opts.Option[Tracker]) (*Tracker, error) {
	if submitter == nil {
		return nil, errors.New("tracker submitter cannot be nil")
	}
	t := &Tracker{
		submitter:  submitter,
		maxBytes:   defaultMaxBytes,
		batchSize:  defaultBatchSize,
		interval:   defaultInterval,
		maxRetries: defaultMaxRetries,
		inflight:   haxmap.New[string, []json.RawMessage](),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	if err := opts.Apply(t, options); err != nil {
		return nil, err
	}
	t.drainCtx, t.drainCancel = context.WithCancel(context.Background())
	t.wg.Add(1)
	go t.loop()
	return t, nil
}

// Pending reports the number of events not yet submitted: those still
// queued plus those in batches currently being sent or retried.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	n := len(t.queue)
	t.mu.Unlock()
	t.inflight.ForEach(func(_ string, batch []json.RawMessage) bool {
		n += len(batch)
		return true
	})
	return n
}

// Enqueue adds an event to the queue without blocking. A zero ID and
// timestamp are filled in. When the queue's byte budget is exceeded the
// oldest events are dropped to make room.
func (t *Tracker) Enqueue(ev Event) error {
	if ev.ID == "" {
		ev.ID = uuidx.NewString()
	}
	if time.Time(ev.Timestamp).IsZero() {
		ev.Timestamp = strfmt.DateTime(time.Now())
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode tracked event: %w", err)
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.queue = append(t.queue, queuedEvent{id: ev.ID, data: data})
	t.queueBytes += len(data)

	var evicted int
	for t.queueBytes > t.maxBytes && len(t.queue) > 1 {
		t.queueBytes -= len(t.queue[0].data)
		t.queue = t.queue[1:]
		evicted++
	}
	shouldFlush := len(t.queue) >= t.batchSize
	t.mu.Unlock()

	if evicted > 0 {
		slog.Warn("tracked event queue over byte budget, dropped oldest events",
			slog.Int("dropped", evicted))
	}
	if shouldFlush {
		select {
		case t.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close stops the flush goroutine after a final drain. When ctx expires
// first the drain is cancelled, in-flight submissions are interrupted and
// the context error is returned; Pending reports what was left behind.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	close(t.done)

	finished := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(finished)
	}()
	select {
	case <-ctx.Done():
		t.drainCancel()
		<-finished
		if n := t.Pending(); n > 0 {
			slog.Warn("tracker closed before submitting all events", slog.Int("pending", n))
		}
		return ctx.Err()
	case <-finished:
		t.drainCancel()
		return nil
	}
}

func (t *Tracker) loop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			// final drain, interruptible through drainCtx
			for t.flush(t.drainCtx) {
			}
			return
		case <-ticker.C:
			t.flush(t.drainCtx)
		case <-t.wake:
			t.flush(t.drainCtx)
		}
	}
}

// flush submits one batch and reports whether any events were taken off the
// queue. Failed batches are logged and dropped; the byte budget makes
// unbounded requeueing of a dead backend pointless.
func (t *Tracker) flush(ctx context.Context) bool {
	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return false
	}
	n := min(len(t.queue), t.batchSize)
	batch := make([]json.RawMessage, n)
	for i, qe := range t.queue[:n] {
		batch[i] = qe.data
	}
	t.queue = t.queue[n:]
	for _, raw := range batch {
		t.queueBytes -= len(raw)
	}
	t.mu.Unlock()

	batchID := uuidx.NewString()
	t.inflight.Set(batchID, batch)
	defer t.inflight.Del(batchID)

	operation := func() (struct{}, error) {
		err := t.submitter.TrackBatch(ctx, batch)
		if err == nil {
			return struct{}{}, nil
		}
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(t.maxRetries),
	); err != nil {
		slog.Error("failed to submit tracked event batch",
			slogx.Error(err), slogx.BatchSize(len(batch)))
	}
	return true
}
