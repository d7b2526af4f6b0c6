package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/deploy"
)

// TeamsAPI covers /api/ai-agents-teams.
type TeamsAPI struct {
	c *Client
}

// List returns the agents teams owned by addr.
func (t *TeamsAPI) List(ctx context.Context, addr address.Address) (*Teams, *Response, error) {
	var out Teams
	resp, err := getJSON(ctx, t.c, fmt.Sprintf("ai-agents-teams/%s", addr), &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// ListVersions returns every version of a team.
func (t *TeamsAPI) ListVersions(ctx context.Context, addr address.Address, id string) (*Teams, *Response, error) {
	var out Teams
	resp, err := getJSON(ctx, t.c, fmt.Sprintf("ai-agents-teams/%s/%s/versions", addr, url.PathEscape(id)), &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// Get returns one version of a team.
func (t *TeamsAPI) Get(ctx context.Context, addr address.Address, id, version string) (*Team, *Response, error) {
	var out Team
	path := fmt.Sprintf("ai-agents-teams/%s/%s/versions/%s", addr, url.PathEscape(id), url.PathEscape(version))
	resp, err := getJSON(ctx, t.c, path, &out)
	if err != nil {
		return nil, resp, err
	}
	return &out, resp, nil
}

// Create registers a new team owned by wallet.
func (t *TeamsAPI) Create(ctx context.Context, wallet *crypto.KeyPair, req TeamRequest) (*UpdateResponse, error) {
	return t.c.Update(ctx, wallet, "ai-agents-teams/create/prepare", req, "ai-agents-teams/create/send")
}

// Save stores a new version of a team.
func (t *TeamsAPI) Save(ctx context.Context, wallet *crypto.KeyPair, id string, req TeamRequest) (*UpdateResponse, error) {
	id = url.PathEscape(id)
	return t.c.Update(ctx, wallet, fmt.Sprintf("ai-agents-teams/%s/save/prepare", id), req, fmt.Sprintf("ai-agents-teams/%s/save/send", id))
}

// Delete removes a team.
func (t *TeamsAPI) Delete(ctx context.Context, wallet *crypto.KeyPair, id string) (*UpdateResponse, error) {
	id = url.PathEscape(id)
	return t.c.Update(ctx, wallet, fmt.Sprintf("ai-agents-teams/%s/delete/prepare", id), nil, fmt.Sprintf("ai-agents-teams/%s/delete/send", id))
}

// Deploy publishes a stored team version to the registry under auth.
func (t *TeamsAPI) Deploy(ctx context.Context, wallet *crypto.KeyPair, id, version string, phloLimit int64, auth *deploy.DeployAuth) (*UpdateResponse, error) {
	req := TeamDeployRequest{
		Type:      DeployTypeAgentsTeam,
		ID:        id,
		Version:   version,
		Address:   wallet.Address().String(),
		PhloLimit: strconv.FormatInt(phloLimit, 10),
		Deploy:    auth,
	}
	return t.deploy(ctx, wallet, phloLimit, req)
}

// DeployGraph publishes a raw graph to the registry under auth.
func (t *TeamsAPI) DeployGraph(ctx context.Context, wallet *crypto.KeyPair, graph string, phloLimit int64, auth *deploy.DeployAuth) (*UpdateResponse, error) {
	req := TeamDeployRequest{
		Type:      DeployTypeGraph,
		Graph:     graph,
		PhloLimit: strconv.FormatInt(phloLimit, 10),
		Deploy:    auth,
	}
	return t.deploy(ctx, wallet, phloLimit, req)
}

func (t *TeamsAPI) deploy(ctx context.Context, wallet *crypto.KeyPair, phloLimit int64, req TeamDeployRequest) (*UpdateResponse, error) {
	if phloLimit <= 0 {
		return nil, fmt.Errorf("phlo limit must be positive, got %d", phloLimit)
	}
	if req.Deploy == nil {
		return nil, fmt.Errorf("deploy authorization is required")
	}

	return t.c.update(ctx, wallet, "ai-agents-teams/deploy/prepare", req, "ai-agents-teams/deploy/send",
		func(prepared *Response) (any, error) {
			var pc TeamDeployPrepared
			if err := prepared.Decode(&pc); err != nil {
				return nil, err
			}

			var send TeamDeploySend
			var err error
			if send.Contract, err = deploy.SignContract(wallet, pc.Contract); err != nil {
				return nil, err
			}
			if pc.System != nil {
				if send.System, err = deploy.SignContract(wallet, *pc.System); err != nil {
					return nil, fmt.Errorf("system contract: %w", err)
				}
			}
			return send, nil
		})
}

// Run prompts a deployed team. The returned deploy is not awaited; Run
// returns the send response.
func (t *TeamsAPI) Run(ctx context.Context, wallet *crypto.KeyPair, prompt string, phloLimit int64, agentsTeam string) (*SendResponse, *Response, error) {
	if phloLimit <= 0 {
		return nil, nil, fmt.Errorf("phlo limit must be positive, got %d", phloLimit)
	}
	req := TeamRunRequest{
		Prompt:     prompt,
		PhloLimit:  strconv.FormatInt(phloLimit, 10),
		AgentsTeam: agentsTeam,
	}

	first, err := t.c.Post(ctx, "ai-agents-teams/run/prepare", req)
	if err != nil {
		return nil, first, fmt.Errorf("failed to prepare run: %w", err)
	}
	body, err := signContract(wallet)(first)
	if err != nil {
		return nil, first, fmt.Errorf("failed to sign run: %w", err)
	}

	second, err := t.c.Post(ctx, "ai-agents-teams/run/send", body)
	if err != nil {
		return nil, second, fmt.Errorf("failed to send run: %w", err)
	}
	var sent SendResponse
	if err := second.Decode(&sent); err != nil {
		return nil, second, err
	}
	return &sent, second, nil
}
