package events

import "sync"

// Registry records confirmed deploy ids for one wallet and releases waiters.
//
// Register and Notify are serialized by the registry's mutex, so a
// confirmation is never lost between the check of the observed set and the
// parking of a latch. The observed set only grows.
type Registry struct {
	mu       sync.Mutex
	observed map[string]struct{}
	pending  map[string]chan struct{}
	metrics  *Metrics
}

// NewRegistry creates an empty registry. metrics may be nil.
func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		observed: make(map[string]struct{}),
		pending:  make(map[string]chan struct{}),
		metrics:  metrics,
	}
}

// Register returns a waiter for deployID. If the id was already observed the
// waiter is complete on return.
func (r *Registry) Register(deployID string) *Waiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.metrics.registered()

	if _, ok := r.observed[deployID]; ok {
		return &Waiter{deployID: deployID, done: closedLatch, metrics: r.metrics}
	}

	latch, ok := r.pending[deployID]
	if !ok {
		latch = make(chan struct{})
		r.pending[deployID] = latch
		r.metrics.pendingAdd(1)
	}
	return &Waiter{deployID: deployID, done: latch, metrics: r.metrics}
}

// Notify marks deployID as observed and releases every waiter parked on it.
// Repeated notifications are no-ops.
func (r *Registry) Notify(deployID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.observed[deployID]; ok {
		r.metrics.duplicate()
		return
	}
	r.observed[deployID] = struct{}{}
	r.metrics.notified()

	if latch, ok := r.pending[deployID]; ok {
		close(latch)
		delete(r.pending, deployID)
		r.metrics.pendingAdd(-1)
	}
}

// Observed reports whether deployID has been confirmed.
func (r *Registry) Observed(deployID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.observed[deployID]
	return ok
}

// Pending returns the number of deploy ids with parked waiters.
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// release drops pending latches without signalling them. Parked waiters
// time out normally.
func (r *Registry) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics.pendingAdd(-float64(len(r.pending)))
	clear(r.pending)
}

var closedLatch = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()
