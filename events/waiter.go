package events

import (
	"context"
	"sync"
	"time"
)

// Waiter blocks until a deploy is confirmed. Waiters for the same id share
// one latch. Each waiter records at most one wait outcome; polls record none.
type Waiter struct {
	deployID string
	done     <-chan struct{}
	metrics  *Metrics
	recorded sync.Once
}

// DeployID returns the deploy id being waited on.
func (w *Waiter) DeployID() string { return w.deployID }

// Done returns a channel closed when the deploy is confirmed.
func (w *Waiter) Done() <-chan struct{} { return w.done }

// Wait blocks for at most timeout. It returns true if the deploy was
// confirmed and false on timeout. A non-positive timeout only polls.
func (w *Waiter) Wait(timeout time.Duration) bool {
	select {
	case <-w.done:
		w.record(true)
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.done:
		w.record(true)
		return true
	case <-timer.C:
		w.record(false)
		return false
	}
}

// WaitContext blocks until the deploy is confirmed or ctx is done.
func (w *Waiter) WaitContext(ctx context.Context) bool {
	select {
	case <-w.done:
		w.record(true)
		return true
	case <-ctx.Done():
		// Both may be ready; confirmation wins.
		select {
		case <-w.done:
			w.record(true)
			return true
		default:
		}
		w.record(false)
		return false
	}
}

func (w *Waiter) record(confirmed bool) {
	w.recorded.Do(func() {
		if confirmed {
			w.metrics.confirmed()
		} else {
			w.metrics.timedOut()
		}
	})
}
