package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// queuePacingDelay elapses after each item completes, before the next item
// starts.
const queuePacingDelay = 200 * time.Millisecond

const queueBuffer = 1024

type queueItem struct {
	req Request
	// Buffered so the drain loop never blocks on an abandoned caller.
	resultCh chan *Result
}

// RequestQueue serializes all translation work. A single drain goroutine
// guarantees at most one in-flight provider call process-wide, strict FIFO
// order, and a pacing delay after each completed item before the next one
// starts. Start is idempotent: only one drain loop ever runs.
type RequestQueue struct {
	items   chan *queueItem
	pacing  time.Duration
	handler func(context.Context, Request) *Result
	logger  zerolog.Logger
	sleep   func(context.Context, time.Duration) error

	mu     sync.Mutex
	closed bool

	startOnce sync.Once
}

// NewRequestQueue builds a queue draining into handler. A non-positive pacing
// falls back to the default 200 ms.
func NewRequestQueue(handler func(context.Context, Request) *Result, pacing time.Duration, logger zerolog.Logger) *RequestQueue {
	if pacing <= 0 {
		pacing = queuePacingDelay
	}
	return &RequestQueue{
		items:   make(chan *queueItem, queueBuffer),
		pacing:  pacing,
		handler: handler,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Start launches the drain loop. Subsequent calls are no-ops.
func (q *RequestQueue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		go q.drain(ctx)
	})
}

// Enqueue appends a request and returns the channel its result will be
// delivered on. Every returned channel resolves with exactly one result,
// including when the queue is full or already shut down.
func (q *RequestQueue) Enqueue(req Request) <-chan *Result {
	item := &queueItem{
		req:      req,
		resultCh: make(chan *Result, 1),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		item.resultCh <- &Result{Success: false, Error: "translation queue is shut down"}
		return item.resultCh
	}
	select {
	case q.items <- item:
	default:
		item.resultCh <- &Result{Success: false, Error: "translation queue is full"}
	}
	q.mu.Unlock()
	return item.resultCh
}

// Pending reports how many requests are waiting to be drained.
func (q *RequestQueue) Pending() int {
	return len(q.items)
}

func (q *RequestQueue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.shutdown(ctx)
			return
		case item := <-q.items:
			item.resultCh <- q.handler(ctx, item.req)
			// The delay runs after completion, so the next item starts no
			// earlier than completion + pacing even when the handler itself
			// took longer than the pacing window.
			if err := q.sleep(ctx, q.pacing); err != nil {
				q.shutdown(ctx)
				return
			}
		}
	}
}

// shutdown marks the queue closed, then resolves whatever is still queued so
// no caller waits on a channel nothing will ever write to. Enqueue holds the
// same lock, so no item can land in the channel after the final flush.
func (q *RequestQueue) shutdown(ctx context.Context) {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	for {
		select {
		case item := <-q.items:
			item.resultCh <- &Result{Success: false, Error: ctx.Err().Error()}
		default:
			q.logger.Debug().Msg("request queue drained")
			return
		}
	}
}
