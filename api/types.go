// Package api provides a client for the embers platform HTTP API.
//
// The client handles:
// - Request/response marshaling against the /api endpoints
// - The prepare → sign → send exchange used by every state-changing call
// - Registering submitted deploys for push confirmation
// - Optional client-side rate limiting
//
// # Usage
//
// Create a client and subscribe the wallet before submitting:
//
//	client := api.NewClient("localhost:8080")
//	defer client.Close()
//
//	if err := client.Wallets.Listen(ctx, wallet); err != nil {
//		log.Fatal(err)
//	}
//
//	update, err := client.Wallets.Transfer(ctx, wallet, recipient, 100, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := update.WaitForSync(0); err != nil {
//		log.Fatal(err)
//	}
package api

import (
	"github.com/f1r3fly-io/embers-client/deploy"
)

// PreparedContract is the first-phase response of most update endpoints.
type PreparedContract struct {
	Contract string `json:"contract"`
}

// SendResponse is the second-phase response of every update endpoint.
type SendResponse struct {
	DeployID string `json:"deploy_id"`
}

// TransferRequest prepares a token transfer. Amount is a decimal string.
type TransferRequest struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Amount      string  `json:"amount"`
	Description *string `json:"description"`
}

// BoostRequest prepares a boost of a post author.
type BoostRequest struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        string  `json:"amount"`
	Description   *string `json:"description"`
	PostAuthorDID string  `json:"post_author_did"`
	PostID        *string `json:"post_id"`
}

// WalletState is the balance and history of a wallet.
type WalletState struct {
	Balance   string           `json:"balance"`
	Requests  []WalletRequest  `json:"requests"`
	Exchanges []map[string]any `json:"exchanges"`
	Boosts    []WalletBoost    `json:"boosts"`
	Transfers []WalletTransfer `json:"transfers"`
}

type WalletRequest struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
}

type WalletTransfer struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Amount      string  `json:"amount"`
	Description *string `json:"description"`
}

type WalletBoost struct {
	ID            string  `json:"id"`
	Timestamp     string  `json:"timestamp"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Amount        string  `json:"amount"`
	Description   *string `json:"description"`
	PostAuthorDID string  `json:"post_author_did"`
	PostID        *string `json:"post_id"`
}

// AgentRequest creates or saves an agent.
type AgentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Shard       *string `json:"shard"`
	Logo        *string `json:"logo"`
	Code        *string `json:"code"`
}

// TeamRequest creates or saves an agents team.
type TeamRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Shard       *string `json:"shard"`
	Logo        *string `json:"logo"`
	Graph       *string `json:"graph"`
}

// VersionedContract is returned by create and save prepare endpoints.
type VersionedContract struct {
	ID       string `json:"id,omitempty"`
	Version  string `json:"version"`
	Contract string `json:"contract"`
}

// Agent is an agent header or full agent version.
type Agent struct {
	ID          string  `json:"id"`
	Version     string  `json:"version"`
	CreatedAt   string  `json:"created_at"`
	LastDeploy  *string `json:"last_deploy,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Shard       *string `json:"shard"`
	Logo        *string `json:"logo"`
	Code        *string `json:"code,omitempty"`
}

// Agents lists agents of a wallet.
type Agents struct {
	Agents []Agent `json:"agents"`
}

// Team is an agents team header or full team version.
type Team struct {
	ID          string  `json:"id"`
	Version     string  `json:"version"`
	CreatedAt   string  `json:"created_at"`
	LastDeploy  *string `json:"last_deploy,omitempty"`
	URI         *string `json:"uri,omitempty"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Shard       *string `json:"shard"`
	Logo        *string `json:"logo"`
	Graph       *string `json:"graph,omitempty"`
}

// Teams lists agents teams of a wallet.
type Teams struct {
	AgentsTeams []Team `json:"agents_teams"`
}

// Deploy target discriminators.
const (
	DeployTypeAgentsTeam = "AgentsTeam"
	DeployTypeGraph      = "Graph"
)

// TeamDeployRequest prepares a registry deploy of a stored team or a raw graph.
type TeamDeployRequest struct {
	Type      string             `json:"type"`
	ID        string             `json:"id,omitempty"`
	Version   string             `json:"version,omitempty"`
	Address   string             `json:"address,omitempty"`
	Graph     string             `json:"graph,omitempty"`
	PhloLimit string             `json:"phlo_limit"`
	Deploy    *deploy.DeployAuth `json:"deploy"`
}

// TeamDeployPrepared carries the deploy contract and an optional system contract.
type TeamDeployPrepared struct {
	Contract string  `json:"contract"`
	System   *string `json:"system"`
}

// TeamDeploySend is the signed counterpart of TeamDeployPrepared.
type TeamDeploySend struct {
	Contract *deploy.SignedContract `json:"contract"`
	System   *deploy.SignedContract `json:"system"`
}

// TeamRunRequest prepares a run of a deployed team.
type TeamRunRequest struct {
	Prompt     string `json:"prompt"`
	PhloLimit  string `json:"phlo_limit"`
	AgentsTeam string `json:"agents_team"`
}

// TestWallet is a funded wallet handed out by the test network.
type TestWallet struct {
	Key string `json:"key"`
}

// TestDeployRequest prepares a test (and optional environment) deploy.
type TestDeployRequest struct {
	Test string  `json:"test"`
	Env  *string `json:"env"`
}

// TestDeployPrepared carries the test contract and optional env contract.
type TestDeployPrepared struct {
	TestContract string  `json:"test_contract"`
	EnvContract  *string `json:"env_contract"`
}

// TestDeploySend is the signed counterpart of TestDeployPrepared.
type TestDeploySend struct {
	Test *deploy.SignedContract `json:"test"`
	Env  *deploy.SignedContract `json:"env"`
}
