package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/f1r3fly-io/embers-client/address"
)

var (
	ErrNotSubscribed = errors.New("wallet is not subscribed")
	ErrHubClosed     = errors.New("hub is closed")
)

// Hub owns one subscription (registry and listener) per wallet address.
// The address map has its own lock; registries never share one.
type Hub struct {
	baseURL string
	cfg     ListenerConfig

	mu     sync.RWMutex
	subs   map[address.Address]*subscription
	closed bool
}

type subscription struct {
	registry *Registry
	listener *Listener
	cancel   context.CancelFunc
	// done is closed when the listener goroutine exits; err is set before
	// that if the listener failed on its own.
	done chan struct{}
	err  error

	// waiting counts Subscribe calls blocked on the first connection.
	// Guarded by Hub.mu.
	waiting int
}

// NewHub creates a hub for the platform at baseURL (host:port or URL).
func NewHub(baseURL string, cfg ListenerConfig) *Hub {
	return &Hub{
		baseURL: baseURL,
		cfg:     cfg,
		subs:    make(map[address.Address]*subscription),
	}
}

// Subscribe starts listening for addr's deploys and blocks until the push
// channel is connected or ctx ends. Subscribing twice is a no-op. A
// subscription that never connected is removed once its last waiting
// caller gives up.
func (h *Hub) Subscribe(ctx context.Context, addr address.Address) error {
	wsURL, err := DeploysURL(h.baseURL, addr)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	sub, ok := h.subs[addr]
	if !ok {
		sub = h.start(addr, wsURL)
		h.subs[addr] = sub
	}
	sub.waiting++
	h.mu.Unlock()

	err = sub.waitConnected(ctx)

	h.mu.Lock()
	sub.waiting--
	abandon := err != nil && sub.waiting == 0 && !sub.isConnected() && h.subs[addr] == sub
	if abandon {
		delete(h.subs, addr)
	}
	h.mu.Unlock()

	if err != nil {
		if abandon {
			sub.stop()
		}
		return fmt.Errorf("failed to subscribe %s: %w", addr, err)
	}
	return nil
}

func (h *Hub) start(addr address.Address, wsURL string) *subscription {
	registry := NewRegistry(h.cfg.Metrics)
	ctx, cancel := context.WithCancel(context.Background())

	sub := &subscription{
		registry: registry,
		listener: NewListener(wsURL, registry, h.cfg),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		err := sub.listener.Run(ctx)
		if ctx.Err() != nil {
			return
		}

		// Reconnects exhausted.
		sub.err = err
		h.cfg.Logger.Error().Err(err).Str("address", addr.String()).Msg("push channel failed, subscription dropped")
		h.evict(addr, sub)
		registry.release()
	}()

	return sub
}

// evict removes sub if it is still addr's subscription.
func (h *Hub) evict(addr address.Address, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[addr] == sub {
		delete(h.subs, addr)
	}
}

// Register returns a waiter for deployID on addr's registry.
func (h *Hub) Register(addr address.Address, deployID string) (*Waiter, error) {
	registry, ok := h.Registry(addr)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSubscribed, addr)
	}
	return registry.Register(deployID), nil
}

// Registry returns addr's registry, if subscribed.
func (h *Hub) Registry(addr address.Address) (*Registry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub, ok := h.subs[addr]
	if !ok {
		return nil, false
	}
	return sub.registry, true
}

// Subscribed returns the number of subscribed addresses.
func (h *Hub) Subscribed() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Unsubscribe stops addr's listener and evicts its registry, including the
// observed set. Outstanding waiters are not released.
func (h *Hub) Unsubscribe(addr address.Address) {
	h.mu.Lock()
	sub, ok := h.subs[addr]
	delete(h.subs, addr)
	h.mu.Unlock()

	if ok {
		sub.stop()
	}
}

// Close stops every listener and waits for them to exit.
func (h *Hub) Close() error {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[address.Address]*subscription)
	h.closed = true
	h.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
	}
	return nil
}

// waitConnected blocks until the first connection, a terminal listener
// failure or the end of ctx.
func (s *subscription) waitConnected(ctx context.Context) error {
	if err := s.failed(); err != nil {
		return err
	}
	select {
	case <-s.listener.Connected():
		return nil
	case <-s.done:
		return s.failed()
	case <-ctx.Done():
		return fmt.Errorf("push channel not connected: %w", ctx.Err())
	}
}

// failed returns the listener's terminal error once it has exited.
func (s *subscription) failed() error {
	select {
	case <-s.done:
		if s.err != nil {
			return s.err
		}
		return ErrNotSubscribed
	default:
		return nil
	}
}

func (s *subscription) isConnected() bool {
	select {
	case <-s.listener.Connected():
		return true
	default:
		return false
	}
}

func (s *subscription) stop() {
	s.cancel()
	<-s.done
	s.registry.release()
}
