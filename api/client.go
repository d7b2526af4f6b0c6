package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/deploy"
	"github.com/f1r3fly-io/embers-client/events"
)

// DefaultTimeout bounds HTTP requests and confirmation waits.
const DefaultTimeout = 15 * time.Second

// ErrConfirmationTimeout is returned when a submitted deploy is not confirmed in time.
var ErrConfirmationTimeout = errors.New("deploy was not confirmed in time")

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeyProvider interface for providing signing keys
type KeyProvider interface {
	GetKeyPair(ctx context.Context) (*crypto.KeyPair, error)
}

// Client implements the embers API client
type Client struct {
	BaseURL        string
	HTTPClient     HTTPClient
	Limiter        *rate.Limiter
	Hub            *events.Hub
	ConfirmTimeout time.Duration

	Testnet *TestnetAPI
	Wallets *WalletsAPI
	Agents  *AgentsAPI
	Teams   *TeamsAPI
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c HTTPClient) Option {
	return func(client *Client) {
		client.HTTPClient = c
	}
}

// WithRateLimit limits outgoing requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(client *Client) {
		client.Limiter = rate.NewLimiter(r, burst)
	}
}

// WithHub sets the confirmation hub used for Listen and update waits.
func WithHub(hub *events.Hub) Option {
	return func(client *Client) {
		client.Hub = hub
	}
}

// WithConfirmTimeout sets the default bound of UpdateResponse.WaitForSync.
func WithConfirmTimeout(d time.Duration) Option {
	return func(client *Client) {
		client.ConfirmTimeout = d
	}
}

// NewClient creates a client for the platform at baseURL, given as host:port
// or as an http(s) URL.
func NewClient(baseURL string, opts ...Option) *Client {
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}

	c := &Client{
		BaseURL:        strings.TrimRight(baseURL, "/"),
		HTTPClient:     &http.Client{Timeout: DefaultTimeout},
		ConfirmTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Hub == nil {
		c.Hub = events.NewHub(c.BaseURL, events.ListenerConfig{})
	}

	c.Testnet = &TestnetAPI{c}
	c.Wallets = &WalletsAPI{c}
	c.Agents = &AgentsAPI{c}
	c.Teams = &TeamsAPI{c}
	return c
}

// Close stops all push listeners.
func (c *Client) Close() error {
	return c.Hub.Close()
}

// Response is a raw API response.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned non-OK status: %d, body: %s", e.Method, e.Path, e.Status, e.Body)
}

// Get issues GET /api/{path}.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues POST /api/{path} with body marshaled as JSON. A nil body sends no payload.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		reqJSON, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(reqJSON)
	}

	url := c.BaseURL + "/api/" + strings.TrimLeft(path, "/")
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	out := &Response{Status: resp.StatusCode, Body: bodyBytes}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(bodyBytes)}
	}
	return out, nil
}

// UpdateResponse holds both phases of an update and the confirmation waiter
// for the submitted deploy.
type UpdateResponse struct {
	First    *Response
	Second   *Response
	DeployID string
	Waiter   *events.Waiter

	timeout time.Duration
}

// WaitForSync blocks until the deploy is confirmed by an observer node. A
// non-positive timeout uses the client's confirmation timeout.
func (u *UpdateResponse) WaitForSync(timeout time.Duration) error {
	if u.Waiter == nil {
		return fmt.Errorf("%w: deploy %s cannot be awaited", events.ErrNotSubscribed, u.DeployID)
	}
	if timeout <= 0 {
		timeout = u.timeout
	}
	if !u.Waiter.Wait(timeout) {
		return fmt.Errorf("%w: deploy %s after %s", ErrConfirmationTimeout, u.DeployID, timeout)
	}
	return nil
}

// signFunc turns the prepare response into the send request body.
type signFunc func(prepared *Response) (any, error)

// signContract signs the single contract of a PreparedContract response.
func signContract(wallet *crypto.KeyPair) signFunc {
	return func(prepared *Response) (any, error) {
		var pc PreparedContract
		if err := prepared.Decode(&pc); err != nil {
			return nil, err
		}
		return deploy.SignContract(wallet, pc.Contract)
	}
}

// Update runs prepare → sign → send and registers the returned deploy id on
// the wallet's subscription. The deploy is submitted even if the wallet is
// not subscribed; WaitForSync then reports events.ErrNotSubscribed.
func (c *Client) Update(ctx context.Context, wallet *crypto.KeyPair, preparePath string, prepareBody any, sendPath string) (*UpdateResponse, error) {
	return c.update(ctx, wallet, preparePath, prepareBody, sendPath, signContract(wallet))
}

func (c *Client) update(ctx context.Context, wallet *crypto.KeyPair, preparePath string, prepareBody any, sendPath string, sign signFunc) (*UpdateResponse, error) {
	first, err := c.Post(ctx, preparePath, prepareBody)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", preparePath, err)
	}

	sendBody, err := sign(first)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", preparePath, err)
	}

	second, err := c.Post(ctx, sendPath, sendBody)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s: %w", sendPath, err)
	}

	var sent SendResponse
	if err := second.Decode(&sent); err != nil {
		return nil, err
	}
	if sent.DeployID == "" {
		return nil, fmt.Errorf("send %s returned no deploy_id", sendPath)
	}

	out := &UpdateResponse{
		First:    first,
		Second:   second,
		DeployID: sent.DeployID,
		timeout:  c.ConfirmTimeout,
	}
	// Not subscribed leaves Waiter nil.
	out.Waiter, _ = c.Hub.Register(wallet.Address(), sent.DeployID)
	return out, nil
}

// WalletFromProvider loads the signing key pair from a KeyProvider.
func WalletFromProvider(ctx context.Context, provider KeyProvider) (*crypto.KeyPair, error) {
	kp, err := provider.GetKeyPair(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}
	return kp, nil
}
