package api

import (
	"context"
	"fmt"

	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/deploy"
)

// TestnetAPI covers /api/testnet.
type TestnetAPI struct {
	c *Client
}

// TestWallet requests a funded wallet and returns its key pair.
func (t *TestnetAPI) TestWallet(ctx context.Context) (*crypto.KeyPair, error) {
	resp, err := t.c.Post(ctx, "testnet/wallet", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to request test wallet: %w", err)
	}
	var tw TestWallet
	if err := resp.Decode(&tw); err != nil {
		return nil, err
	}
	kp, err := crypto.KeyPairFromHex(tw.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse test wallet key: %w", err)
	}
	return kp, nil
}

// Deploy runs test code, with optional environment code, signed by wallet.
func (t *TestnetAPI) Deploy(ctx context.Context, wallet *crypto.KeyPair, test string, env *string) (*Response, error) {
	first, err := t.c.Post(ctx, "testnet/deploy/prepare", TestDeployRequest{Test: test, Env: env})
	if err != nil {
		return first, fmt.Errorf("failed to prepare test deploy: %w", err)
	}

	var prepared TestDeployPrepared
	if err := first.Decode(&prepared); err != nil {
		return first, err
	}

	var send TestDeploySend
	if send.Test, err = deploy.SignContract(wallet, prepared.TestContract); err != nil {
		return first, fmt.Errorf("failed to sign test contract: %w", err)
	}
	if prepared.EnvContract != nil {
		if send.Env, err = deploy.SignContract(wallet, *prepared.EnvContract); err != nil {
			return first, fmt.Errorf("failed to sign env contract: %w", err)
		}
	}

	second, err := t.c.Post(ctx, "testnet/deploy/send", send)
	if err != nil {
		return second, fmt.Errorf("failed to send test deploy: %w", err)
	}
	return second, nil
}
