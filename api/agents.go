package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/crypto"
)

// AgentsAPI covers /api/ai-agents.
type AgentsAPI struct {
	c *Client
}

// List returns the agents owned by addr.
func (a *AgentsAPI) List(ctx context.Context, addr address.Address) (*Agents, *Response, error) {
	var out Agents
	resp, err := getJSON(ctx, a.c, fmt.Sprintf("ai-agents/%s", addr), &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// ListVersions returns every version of an agent.
func (a *AgentsAPI) ListVersions(ctx context.Context, addr address.Address, id string) (*Agents, *Response, error) {
	var out Agents
	resp, err := getJSON(ctx, a.c, fmt.Sprintf("ai-agents/%s/%s/versions", addr, url.PathEscape(id)), &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// Get returns one version of an agent.
func (a *AgentsAPI) Get(ctx context.Context, addr address.Address, id, version string) (*Agent, *Response, error) {
	var out Agent
	path := fmt.Sprintf("ai-agents/%s/%s/versions/%s", addr, url.PathEscape(id), url.PathEscape(version))
	resp, err := getJSON(ctx, a.c, path, &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// Create registers a new agent owned by wallet.
func (a *AgentsAPI) Create(ctx context.Context, wallet *crypto.KeyPair, req AgentRequest) (*UpdateResponse, error) {
	return a.c.Update(ctx, wallet, "ai-agents/create/prepare", req, "ai-agents/create/send")
}

// Save stores a new version of an agent.
func (a *AgentsAPI) Save(ctx context.Context, wallet *crypto.KeyPair, id string, req AgentRequest) (*UpdateResponse, error) {
	id = url.PathEscape(id)
	return a.c.Update(ctx, wallet, fmt.Sprintf("ai-agents/%s/save/prepare", id), req, fmt.Sprintf("ai-agents/%s/save/send", id))
}

// Delete removes an agent.
func (a *AgentsAPI) Delete(ctx context.Context, wallet *crypto.KeyPair, id string) (*UpdateResponse, error) {
	id = url.PathEscape(id)
	return a.c.Update(ctx, wallet, fmt.Sprintf("ai-agents/%s/delete/prepare", id), nil, fmt.Sprintf("ai-agents/%s/delete/send", id))
}

func getJSON(ctx context.Context, c *Client, path string, v any) (*Response, error) {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return resp, err
	}
	return resp, resp.Decode(v)
}
