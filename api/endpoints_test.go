package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/f1r3fly-io/embers-client/deploy"
)

func TestAgentsLifecycle(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()
	wallet := fundedWallet(t)
	listen(t, c, wallet)
	ctx := context.Background()

	code := "new x in { x!(1) }"
	created, err := c.Agents.Create(ctx, wallet, AgentRequest{Name: "my-agent", Code: &code})
	require.NoError(t, err)
	require.NoError(t, created.WaitForSync(5*time.Second))

	var prepared VersionedContract
	require.NoError(t, created.First.Decode(&prepared))
	assert.Equal(t, "agent-1", prepared.ID)
	assert.Equal(t, "v1", prepared.Version)

	body := decodeBody(t, p.body("ai-agents/create/prepare"))
	assert.Equal(t, "my-agent", body["name"])
	assert.Equal(t, code, body["code"])
	assert.Nil(t, body["shard"])

	saved, err := c.Agents.Save(ctx, wallet, "agent-1", AgentRequest{Name: "renamed"})
	require.NoError(t, err)
	require.NoError(t, saved.WaitForSync(5*time.Second))
	assert.NotEmpty(t, p.body("ai-agents/agent-1/save/send"))

	deleted, err := c.Agents.Delete(ctx, wallet, "agent-1")
	require.NoError(t, err)
	require.NoError(t, deleted.WaitForSync(5*time.Second))

	assert.Empty(t, p.body("ai-agents/agent-1/delete/prepare"), "delete prepare has no body")
	assert.NotEmpty(t, p.body("ai-agents/agent-1/delete/send"), "delete is sent to its own endpoint")
}

func TestAgentsQueries(t *testing.T) {
	p := newFakePlatform(t)
	p.getBody = `{"agents":[{"id":"a1","version":"v2","created_at":"1","name":"n","description":null,"shard":null,"logo":null}]}`
	c := p.client()
	addr := fundedWallet(t).Address()
	ctx := context.Background()

	list, _, err := c.Agents.List(ctx, addr)
	require.NoError(t, err)
	require.Len(t, list.Agents, 1)
	assert.Equal(t, "a1", list.Agents[0].ID)
	assert.Equal(t, http.MethodGet, p.method("ai-agents/"+addr.String()))

	_, _, err = c.Agents.ListVersions(ctx, addr, "a1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, p.method("ai-agents/"+addr.String()+"/a1/versions"))

	p.getBody = `{"id":"a1","version":"v2","created_at":"1","name":"n","code":"Nil"}`
	agent, _, err := c.Agents.Get(ctx, addr, "a1", "v2")
	require.NoError(t, err)
	require.NotNil(t, agent.Code)
	assert.Equal(t, "Nil", *agent.Code)
	assert.Equal(t, http.MethodGet, p.method("ai-agents/"+addr.String()+"/a1/versions/v2"))
}

func TestTeamsLifecycle(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()
	wallet := fundedWallet(t)
	listen(t, c, wallet)
	ctx := context.Background()

	graph := "< a > | 0"
	created, err := c.Teams.Create(ctx, wallet, TeamRequest{Name: "team", Graph: &graph})
	require.NoError(t, err)
	require.NoError(t, created.WaitForSync(5*time.Second))
	assert.Equal(t, graph, decodeBody(t, p.body("ai-agents-teams/create/prepare"))["graph"])

	saved, err := c.Teams.Save(ctx, wallet, "agent-1", TeamRequest{Name: "team"})
	require.NoError(t, err)
	require.NoError(t, saved.WaitForSync(5*time.Second))

	deleted, err := c.Teams.Delete(ctx, wallet, "agent-1")
	require.NoError(t, err)
	require.NoError(t, deleted.WaitForSync(5*time.Second))
	assert.NotEmpty(t, p.body("ai-agents-teams/agent-1/delete/send"))
}

func TestTeamsDeploy(t *testing.T) {
	envKey := newWallet(t)
	wallet := fundedWallet(t)
	auth, err := deploy.NewDeployAuth(envKey, time.UnixMilli(1700000000000), wallet.PublicKeyBytes(), 0)
	require.NoError(t, err)

	t.Run("stored team with system contract", func(t *testing.T) {
		p := newFakePlatform(t)
		p.system = true
		c := p.client()
		listen(t, c, wallet)

		update, err := c.Teams.Deploy(context.Background(), wallet, "team-1", "v3", 1000, auth)
		require.NoError(t, err)
		require.NoError(t, update.WaitForSync(5*time.Second))

		prepare := decodeBody(t, p.body("ai-agents-teams/deploy/prepare"))
		assert.Equal(t, DeployTypeAgentsTeam, prepare["type"])
		assert.Equal(t, "team-1", prepare["id"])
		assert.Equal(t, "v3", prepare["version"])
		assert.Equal(t, wallet.Address().String(), prepare["address"])
		assert.Equal(t, "1000", prepare["phlo_limit"])
		assert.NotContains(t, prepare, "graph")

		d := prepare["deploy"].(map[string]any)
		assert.Equal(t, "1700000000000", d["timestamp"])
		assert.Equal(t, "0", d["version"])
		assert.Equal(t, envKey.PublicKeyHex(), d["uri_pub_key"])

		send := decodeBody(t, p.body("ai-agents-teams/deploy/send"))
		assert.NotNil(t, send["contract"])
		system := send["system"].(map[string]any)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("system")), system["contract"])
	})

	t.Run("graph without system contract", func(t *testing.T) {
		p := newFakePlatform(t)
		c := p.client()
		listen(t, c, wallet)

		update, err := c.Teams.DeployGraph(context.Background(), wallet, "< a > | 0", 500, auth)
		require.NoError(t, err)
		require.NoError(t, update.WaitForSync(5*time.Second))

		prepare := decodeBody(t, p.body("ai-agents-teams/deploy/prepare"))
		assert.Equal(t, DeployTypeGraph, prepare["type"])
		assert.Equal(t, "< a > | 0", prepare["graph"])
		assert.NotContains(t, prepare, "id")

		send := decodeBody(t, p.body("ai-agents-teams/deploy/send"))
		v, ok := send["system"]
		assert.True(t, ok)
		assert.Nil(t, v)
	})

	t.Run("validation", func(t *testing.T) {
		p := newFakePlatform(t)
		c := p.client()

		_, err := c.Teams.DeployGraph(context.Background(), wallet, "g", 0, auth)
		assert.Error(t, err)
		_, err = c.Teams.DeployGraph(context.Background(), wallet, "g", 10, nil)
		assert.Error(t, err)
		assert.Empty(t, p.body("ai-agents-teams/deploy/prepare"))
	})
}

func TestTeamsRun(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()
	wallet := fundedWallet(t)

	sent, resp, err := c.Teams.Run(context.Background(), wallet, "hello", 250, wallet.URI())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "deploy-1", sent.DeployID)

	prepare := decodeBody(t, p.body("ai-agents-teams/run/prepare"))
	assert.Equal(t, "hello", prepare["prompt"])
	assert.Equal(t, "250", prepare["phlo_limit"])
	assert.Equal(t, wallet.URI(), prepare["agents_team"])
}

func TestTestnet(t *testing.T) {
	p := newFakePlatform(t)
	c := p.client()
	ctx := context.Background()

	kp, err := c.Testnet.TestWallet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "11117Jv1oQo1qkxrKrHXumDZu183yoPRhRXJgqy2D3Gh53bUUZYqY", kp.Address().String())
	assert.Equal(t, http.MethodPost, p.method("testnet/wallet"))

	env := "new env in { Nil }"
	resp, err := c.Testnet.Deploy(ctx, kp, "test code", &env)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	prepare := decodeBody(t, p.body("testnet/deploy/prepare"))
	assert.Equal(t, "test code", prepare["test"])
	assert.Equal(t, env, prepare["env"])

	send := decodeBody(t, p.body("testnet/deploy/send"))
	assert.NotNil(t, send["test"])
	assert.NotNil(t, send["env"])
}
