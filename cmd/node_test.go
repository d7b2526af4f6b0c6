package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/deploy"
	"github.com/f1r3fly-io/embers-client/testdata"
)

const (
	validatorEvent = `{"type":"Finalized","deploy_id":"%s","cost":"12","errored":false,"node_type":"Validator"}`
	observerEvent  = `{"type":"Finalized","deploy_id":"%s","cost":"12","errored":false,"node_type":"Observer"}`
)

// fakeNode serves the subset of the platform API the commands use.
type fakeNode struct {
	*httptest.Server
	t *testing.T

	mu       sync.Mutex
	conns    []*websocket.Conn
	upgrades int
	bodies   map[string][]byte
	// onConnect is sent to every new push connection.
	onConnect []string
}

func newFakeNode(t *testing.T) *fakeNode {
	t.Helper()

	n := &fakeNode{t: t, bodies: make(map[string][]byte)}
	upgrader := websocket.Upgrader{}

	n.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/deploys") {
			n.mu.Lock()
			n.upgrades++
			n.mu.Unlock()

			conn, err := upgrader.Upgrade(w, r, nil)
			n.mu.Lock()
			defer n.mu.Unlock()
			if err != nil {
				n.upgrades--
				return
			}
			n.conns = append(n.conns, conn)
			for _, msg := range n.onConnect {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(msg))
			}
			return
		}

		var body bytes.Buffer
		_, _ = body.ReadFrom(r.Body)
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		n.mu.Lock()
		n.bodies[path] = body.Bytes()
		n.mu.Unlock()

		switch path {
		case "testnet/wallet":
			key, _, _ := strings.Cut(strings.TrimSpace(string(testdata.WalletPrivate)), ":")
			writeJSON(w, map[string]string{"key": key})
		case "wallets/transfer/prepare":
			writeJSON(w, map[string]string{"contract": base64.StdEncoding.EncodeToString([]byte("transfer"))})
		case "wallets/transfer/send":
			var signed deploy.SignedContract
			if err := json.Unmarshal(body.Bytes(), &signed); err != nil || signed.Verify() != nil {
				http.Error(w, "bad signature", http.StatusBadRequest)
				return
			}
			n.push(validatorEvent, "deploy-1")
			n.push(observerEvent, "deploy-1")
			writeJSON(w, map[string]string{"deploy_id": "deploy-1"})
		default:
			http.NotFound(w, r)
		}
	}))

	t.Cleanup(func() {
		n.mu.Lock()
		for _, c := range n.conns {
			_ = c.Close()
		}
		n.mu.Unlock()
		n.Close()
	})
	return n
}

func (n *fakeNode) push(format, deployID string) {
	msg := []byte(strings.ReplaceAll(format, "%s", deployID))

	// The client may see the handshake complete before the handler records it.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n.mu.Lock()
		ready := len(n.conns) >= n.upgrades
		n.mu.Unlock()
		if ready {
			break
		}
		time.Sleep(time.Millisecond)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.conns {
		_ = c.WriteMessage(websocket.TextMessage, msg)
	}
}

func (n *fakeNode) body(path string) []byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.bodies[path]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// runApp runs the CLI with args and returns what it wrote to stdout and stderr.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := &cli.Command{
		Name:      "embers",
		Writer:    &stdout,
		ErrWriter: &stderr,
		Flags:     GlobalFlags(),
		Commands: []*cli.Command{
			AddressCommand(),
			KeygenCommand(),
			SignContractCommand(),
			DeployAuthCommand(),
			TransferCommand(),
			ListenCommand(),
		},
	}

	err := app.Run(context.Background(), append([]string{"embers"}, args...))
	return stdout.String(), stderr.String(), err
}

// walletFile writes the funded wallet's private key to a temp file.
func walletFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wallet.private")
	require.NoError(t, os.WriteFile(path, testdata.WalletPrivate, 0o600))
	return path
}

func decodeOutput(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}
