package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/embers-client/deploy"
	"github.com/f1r3fly-io/embers-client/events"
)

// fakePlatform serves the prepare/send endpoints and the deploy push channel.
// Every send is verified, answered with a fresh deploy id and, when
// confirm is set, confirmed on the push channel before the response is written.
type fakePlatform struct {
	t   *testing.T
	srv *httptest.Server

	mu       sync.Mutex
	bodies   map[string][]byte
	methods  map[string]string
	conns    []*websocket.Conn
	upgrades int
	nextID   int
	confirm  bool
	contract []byte
	system   bool
	getBody  string
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()

	p := &fakePlatform{
		t:        t,
		bodies:   make(map[string][]byte),
		methods:  make(map[string]string),
		confirm:  true,
		contract: []byte("prepared contract bytes"),
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(func() {
		p.mu.Lock()
		for _, c := range p.conns {
			_ = c.Close()
		}
		p.mu.Unlock()
		p.srv.Close()
	})
	return p
}

func (p *fakePlatform) client(opts ...Option) *Client {
	hub := events.NewHub(p.srv.URL, events.ListenerConfig{
		BackOff: func() backoff.BackOff { return backoff.NewConstantBackOff(10 * time.Millisecond) },
	})
	c := NewClient(p.srv.URL, append([]Option{WithHub(hub)}, opts...)...)
	p.t.Cleanup(func() { _ = c.Close() })
	return c
}

func (p *fakePlatform) body(path string) []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bodies[path]
}

func (p *fakePlatform) method(path string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.methods[path]
}

func (p *fakePlatform) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	if strings.HasSuffix(path, "/deploys") {
		p.mu.Lock()
		p.upgrades++
		p.mu.Unlock()

		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.upgrades--
			return
		}
		p.conns = append(p.conns, conn)
		return
	}

	body, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.bodies[path] = body
	p.methods[path] = r.Method
	p.mu.Unlock()

	switch {
	case path == "testnet/wallet":
		writeJSON(w, map[string]string{"key": "0B4E12EC24D2F42F3FC826194750E3168A5F03071F382375C29A5E801DBBE8A5"})
	case path == "testnet/deploy/prepare":
		env := base64.StdEncoding.EncodeToString([]byte("env"))
		writeJSON(w, map[string]any{"test_contract": p.encoded(), "env_contract": &env})
	case path == "ai-agents-teams/deploy/prepare":
		resp := map[string]any{"contract": p.encoded(), "system": nil}
		if p.system {
			resp["system"] = base64.StdEncoding.EncodeToString([]byte("system"))
		}
		writeJSON(w, resp)
	case strings.HasSuffix(path, "/prepare"):
		writeJSON(w, map[string]string{"id": "agent-1", "version": "v1", "contract": p.encoded()})
	case strings.HasSuffix(path, "/send"):
		p.send(w, path, body)
	default:
		fmt.Fprint(w, p.getBody)
	}
}

func (p *fakePlatform) encoded() string {
	return base64.StdEncoding.EncodeToString(p.contract)
}

func (p *fakePlatform) send(w http.ResponseWriter, path string, body []byte) {
	if err := verifySigned(path, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.awaitConns()

	p.mu.Lock()
	p.nextID++
	id := fmt.Sprintf("deploy-%d", p.nextID)
	if p.confirm {
		for _, c := range p.conns {
			msg := fmt.Sprintf(`{"type":"Finalized","deploy_id":%q,"cost":"7","errored":false,"node_type":"Validator"}`, id)
			_ = c.WriteMessage(websocket.TextMessage, []byte(msg))
			msg = strings.Replace(msg, "Validator", "Observer", 1)
			_ = c.WriteMessage(websocket.TextMessage, []byte(msg))
		}
	}
	p.mu.Unlock()

	writeJSON(w, map[string]string{"deploy_id": id})
}

// awaitConns waits until every accepted push connection is registered. The
// client may see the handshake complete before the handler records it.
func (p *fakePlatform) awaitConns() {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		ready := len(p.conns) >= p.upgrades
		p.mu.Unlock()
		if ready {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func verifySigned(path string, body []byte) error {
	var signed []*deploy.SignedContract
	switch path {
	case "ai-agents-teams/deploy/send":
		var req TeamDeploySend
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		signed = append(signed, req.Contract)
		if req.System != nil {
			signed = append(signed, req.System)
		}
	case "testnet/deploy/send":
		var req TestDeploySend
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		signed = append(signed, req.Test)
		if req.Env != nil {
			signed = append(signed, req.Env)
		}
	default:
		var req deploy.SignedContract
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		signed = append(signed, &req)
	}

	for _, s := range signed {
		if s == nil {
			return fmt.Errorf("missing signed contract")
		}
		if err := s.Verify(); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}
