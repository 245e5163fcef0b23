package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fastConfig keeps the tests quick while preserving the queue's shape.
func fastConfig() Config {
	return Config{
		MinInterval:  20 * time.Millisecond,
		MaxQueueSize: 10,
		Cooldown:     time.Millisecond,
	}
}

func TestSubmitRunsInvocation(t *testing.T) {
	q := New(fastConfig())
	defer q.Close()

	ran := false
	err := q.Submit(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !ran {
		t.Error("invocation did not run")
	}
}

func TestSubmitPropagatesInvocationError(t *testing.T) {
	q := New(fastConfig())
	defer q.Close()

	boom := errors.New("boom")
	err := q.Submit(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected invocation error back, got %v", err)
	}
}

func TestStrictSerialization(t *testing.T) {
	q := New(fastConfig())
	defer q.Close()

	var mu sync.Mutex
	inFlight := 0
	maxInFlight := 0

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Submit(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxInFlight != 1 {
		t.Errorf("expected at most 1 invocation in flight, observed %d", maxInFlight)
	}
}

func TestMinIntervalBetweenStarts(t *testing.T) {
	q := New(Config{
		MinInterval:  50 * time.Millisecond,
		MaxQueueSize: 10,
		Cooldown:     time.Millisecond,
	})
	defer q.Close()

	var mu sync.Mutex
	var starts []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Submit(context.Background(), func(ctx context.Context) error {
				mu.Lock()
				starts = append(starts, time.Now())
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if len(starts) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(starts))
	}
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		// Allow a small scheduler tolerance below the configured interval.
		if gap < 45*time.Millisecond {
			t.Errorf("starts %d and %d only %v apart, want >= 50ms", i-1, i, gap)
		}
	}
}

func TestOverflowEvictsOldestPending(t *testing.T) {
	q := New(Config{
		MinInterval:  10 * time.Millisecond,
		MaxQueueSize: 3,
		Cooldown:     time.Millisecond,
	})
	defer q.Close()

	// Occupy the worker so submissions pile up in the backlog.
	blocker := make(chan struct{})
	workerBusy := make(chan struct{})
	go func() {
		_ = q.Submit(context.Background(), func(ctx context.Context) error {
			close(workerBusy)
			<-blocker
			return nil
		})
	}()
	<-workerBusy

	results := make([]chan error, 4)
	for i := 0; i < 4; i++ {
		results[i] = make(chan error, 1)
		idx := i
		go func() {
			results[idx] <- q.Submit(context.Background(), func(ctx context.Context) error {
				return nil
			})
		}()
		// Keep submission order deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	// The 4th submission overflows a backlog of 3; the oldest pending
	// request (the 1st) must be the one rejected.
	select {
	case err := <-results[0]:
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("expected ErrOverflow for oldest pending, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("oldest pending request was not rejected")
	}

	close(blocker)
	for i := 1; i < 4; i++ {
		select {
		case err := <-results[i]:
			if err != nil {
				t.Errorf("request %d failed: %v", i, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("request %d never completed", i)
		}
	}
}

func TestSubmitAfterClose(t *testing.T) {
	q := New(fastConfig())
	q.Close()

	err := q.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCancelledSubmitDoesNotDisturbQueue(t *testing.T) {
	q := New(fastConfig())
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Submit(ctx, func(ctx context.Context) error {
		t.Error("cancelled invocation should not run")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	// The queue still processes later requests.
	err = q.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Errorf("queue unhealthy after cancelled submit: %v", err)
	}
}
