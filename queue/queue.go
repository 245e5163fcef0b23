// Package queue provides a rate-limited, strictly serialized request queue.
//
// All outbound API calls funnel through one queue: a single worker
// executes at most one invocation at a time, enforces a minimum interval
// between the start of consecutive invocations, and applies a short
// cooldown after each completion to avoid tight-loop re-entry.
//
// Overflow policy: when the backlog exceeds its bound, the OLDEST pending
// request is failed before the newest is accepted. This protects against
// unbounded memory growth under sustained overload at the cost of
// starving old requests rather than new ones - the inverse of the usual
// reject-newest policy, kept deliberately.

package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultMinInterval is the minimum gap between invocation starts.
	DefaultMinInterval = time.Second
	// DefaultMaxQueueSize bounds the pending backlog.
	DefaultMaxQueueSize = 10
	// DefaultCooldown follows every completed invocation, independent of
	// the minimum interval.
	DefaultCooldown = 100 * time.Millisecond
)

// ErrOverflow is returned to a request evicted from a full backlog.
var ErrOverflow = errors.New("request queue overflow: evicted under sustained load")

// ErrClosed is returned to requests submitted to, or pending in, a
// closed queue.
var ErrClosed = errors.New("request queue closed")

// Config holds queue tuning knobs. Zero values fall back to defaults.
type Config struct {
	MinInterval  time.Duration
	MaxQueueSize int
	Cooldown     time.Duration
}

type item struct {
	ctx        context.Context
	invoke     func(context.Context) error
	done       chan error // buffered; worker never blocks on delivery
	enqueuedAt time.Time
}

// Queue serializes submitted invocations through a single worker.
type Queue struct {
	mu      sync.Mutex
	backlog []*item
	closed  bool

	wake chan struct{}
	stop chan struct{}

	minInterval time.Duration
	maxSize     int
	cooldown    time.Duration
	lastStart   time.Time
}

// New creates the queue and starts its worker.
func New(cfg Config) *Queue {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = DefaultMaxQueueSize
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}

	q := &Queue{
		wake:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
		minInterval: cfg.MinInterval,
		maxSize:     cfg.MaxQueueSize,
		cooldown:    cfg.Cooldown,
	}
	go q.run()
	return q
}

// Submit enqueues invoke and blocks until it completes, the caller's
// context is cancelled, or the request is evicted by the overflow
// policy. Cancelling one request never disturbs the worker or the other
// pending requests.
func (q *Queue) Submit(ctx context.Context, invoke func(context.Context) error) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}

	it := &item{
		ctx:        ctx,
		invoke:     invoke,
		done:       make(chan error, 1),
		enqueuedAt: time.Now(),
	}

	// Fail the oldest pending request before accepting the newest.
	if len(q.backlog) >= q.maxSize {
		oldest := q.backlog[0]
		q.backlog = q.backlog[1:]
		oldest.done <- ErrOverflow
	}
	q.backlog = append(q.backlog, it)
	q.mu.Unlock()

	q.signal()

	select {
	case err := <-it.done:
		return err
	case <-ctx.Done():
		// The worker notices the dead context and skips the invocation.
		return ctx.Err()
	}
}

// Backlog returns the number of pending (not yet started) requests.
func (q *Queue) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Close stops the worker and fails every pending request with ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.backlog
	q.backlog = nil
	q.mu.Unlock()

	close(q.stop)
	for _, it := range pending {
		it.done <- ErrClosed
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run is the single worker loop: pop oldest, honor the rate interval,
// invoke, cool down.
func (q *Queue) run() {
	for {
		it := q.next()
		if it == nil {
			return
		}

		if it.ctx.Err() != nil {
			it.done <- it.ctx.Err()
			continue
		}

		// Defer until the minimum interval since the previous start has
		// elapsed.
		q.mu.Lock()
		last := q.lastStart
		q.mu.Unlock()
		if !last.IsZero() {
			if wait := q.minInterval - time.Since(last); wait > 0 {
				if !q.sleep(wait) {
					it.done <- ErrClosed
					return
				}
			}
		}

		// The context may have died during the wait.
		if it.ctx.Err() != nil {
			it.done <- it.ctx.Err()
			continue
		}

		q.mu.Lock()
		q.lastStart = time.Now()
		q.mu.Unlock()

		it.done <- it.invoke(it.ctx)

		// Cooldown before considering the next item, success or failure.
		if !q.sleep(q.cooldown) {
			return
		}
	}
}

// next blocks until an item is available or the queue closes.
func (q *Queue) next() *item {
	for {
		q.mu.Lock()
		if len(q.backlog) > 0 {
			it := q.backlog[0]
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
			return it
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil
		}

		select {
		case <-q.wake:
		case <-q.stop:
			return nil
		}
	}
}

// sleep waits for d, returning false if the queue closed first.
func (q *Queue) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-q.stop:
		return false
	}
}
