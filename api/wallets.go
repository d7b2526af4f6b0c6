package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/crypto"
)

// WalletsAPI covers /api/wallets.
type WalletsAPI struct {
	c *Client
}

// State returns the balance and history of addr.
func (w *WalletsAPI) State(ctx context.Context, addr address.Address) (*WalletState, *Response, error) {
	resp, err := w.c.Get(ctx, fmt.Sprintf("wallets/%s/state", addr))
	if err != nil {
		return nil, resp, err
	}
	var state WalletState
	if err := resp.Decode(&state); err != nil {
		return nil, resp, err
	}
	return &state, resp, nil
}

// Transfer moves amount tokens from wallet to recipient.
func (w *WalletsAPI) Transfer(ctx context.Context, from *crypto.KeyPair, to address.Address, amount int64, description *string) (*UpdateResponse, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	req := TransferRequest{
		From:        from.Address().String(),
		To:          to.String(),
		Amount:      strconv.FormatInt(amount, 10),
		Description: description,
	}
	return w.c.Update(ctx, from, "wallets/transfer/prepare", req, "wallets/transfer/send")
}

// Boost transfers amount tokens to the author of a post.
func (w *WalletsAPI) Boost(ctx context.Context, from *crypto.KeyPair, to address.Address, amount int64, postAuthorDID string, description, postID *string) (*UpdateResponse, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("boost amount must be positive, got %d", amount)
	}
	req := BoostRequest{
		From:          from.Address().String(),
		To:            to.String(),
		Amount:        strconv.FormatInt(amount, 10),
		Description:   description,
		PostAuthorDID: postAuthorDID,
		PostID:        postID,
	}
	return w.c.Update(ctx, from, "wallets/boost/prepare", req, "wallets/boost/send")
}

// Listen subscribes to the wallet's deploy events. It returns once the push
// channel is connected, so deploys submitted afterwards cannot be missed.
func (w *WalletsAPI) Listen(ctx context.Context, wallet *crypto.KeyPair) error {
	return w.c.Hub.Subscribe(ctx, wallet.Address())
}

// Unlisten stops the wallet's subscription and forgets its confirmations.
func (w *WalletsAPI) Unlisten(wallet *crypto.KeyPair) {
	w.c.Hub.Unsubscribe(wallet.Address())
}
