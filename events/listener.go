package events

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/f1r3fly-io/embers-client/address"
)

// ListenerConfig holds the optional collaborators of a Listener. Zero values
// select defaults.
type ListenerConfig struct {
	Dialer  *websocket.Dialer
	Logger  zerolog.Logger
	Metrics *Metrics
	// BackOff returns the reconnect policy for one outage. Defaults to an
	// unbounded exponential backoff.
	BackOff func() backoff.BackOff
	// OnEvent, if set, sees every well-formed event before filtering.
	OnEvent func(*DeployEvent)
}

// Listener owns the push connection of one wallet and feeds observer
// confirmations into its Registry. It reconnects until its context ends.
type Listener struct {
	url      string
	registry *Registry
	dialer   *websocket.Dialer
	logger   zerolog.Logger
	metrics  *Metrics
	backOff  func() backoff.BackOff
	onEvent  func(*DeployEvent)

	connectedOnce sync.Once
	connected     chan struct{}
}

// NewListener creates a listener for the push endpoint at wsURL.
func NewListener(wsURL string, registry *Registry, cfg ListenerConfig) *Listener {
	l := &Listener{
		url:       wsURL,
		registry:  registry,
		dialer:    cfg.Dialer,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		backOff:   cfg.BackOff,
		onEvent:   cfg.OnEvent,
		connected: make(chan struct{}),
	}
	if l.dialer == nil {
		l.dialer = websocket.DefaultDialer
	}
	if l.backOff == nil {
		l.backOff = defaultBackOff
	}
	return l
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// DeploysURL returns the push endpoint for a wallet's deploys. base may be
// host:port or an http(s)/ws(s) URL.
func DeploysURL(base string, addr address.Address) (string, error) {
	if !strings.Contains(base, "://") {
		base = "ws://" + base
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	return u.JoinPath("api", "wallets", addr.String(), "deploys").String(), nil
}

// Connected is closed once the first connection has been established.
func (l *Listener) Connected() <-chan struct{} {
	return l.connected
}

// WaitConnected blocks until the first connection is established or ctx ends.
func (l *Listener) WaitConnected(ctx context.Context) error {
	select {
	case <-l.connected:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("push channel not connected: %w", ctx.Err())
	}
}

// Run connects and consumes messages until ctx is cancelled. It always
// returns a non-nil error, ctx.Err() on shutdown.
func (l *Listener) Run(ctx context.Context) error {
	for {
		conn, err := l.dial(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		l.connectedOnce.Do(func() { close(l.connected) })
		l.consume(ctx, conn)

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	var conn *websocket.Conn
	attempt := 0

	op := func() error {
		attempt++
		c, _, err := l.dialer.DialContext(ctx, l.url, nil)
		if err != nil {
			l.metrics.connection("failed")
			l.logger.Debug().Err(err).Str("url", l.url).Int("attempt", attempt).Msg("push channel dial failed")
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(l.backOff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", l.url, err)
	}

	l.metrics.connection("connected")
	return conn, nil
}

func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) {
	session := uuid.NewString()
	logger := l.logger.With().Str("session", session).Str("url", l.url).Logger()
	logger.Info().Msg("push channel connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				logger.Warn().Err(err).Msg("push channel closed, reconnecting")
			}
			return
		}
		if typ != websocket.TextMessage {
			l.metrics.message("ignored")
			logger.Debug().Int("type", typ).Msg("ignored push message")
			continue
		}
		l.handle(logger, data)
	}
}

// HandleMessage processes one push message as if it had been received.
func (l *Listener) HandleMessage(data []byte) {
	l.handle(l.logger, data)
}

func (l *Listener) handle(logger zerolog.Logger, data []byte) {
	ev, err := ParseDeployEvent(data)
	if err != nil {
		l.metrics.message("malformed")
		logger.Debug().Err(err).Msg("skipping push message")
		return
	}
	if l.onEvent != nil {
		l.onEvent(ev)
	}

	if !ev.IsObserverConfirmation() {
		l.metrics.message("ignored")
		return
	}

	l.metrics.message("confirmation")
	logger.Debug().Str("deploy_id", ev.DeployID).Bool("errored", ev.Errored).Msg("deploy confirmed")
	l.registry.Notify(ev.DeployID)
}
