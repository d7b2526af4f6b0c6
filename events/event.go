// Package events tracks deploy confirmations pushed by the platform.
//
// Each subscribed wallet address owns a Registry of deploy ids. Confirmation
// events are fed into the registry as they arrive over the wallet's push
// channel; callers register interest in a deploy id after submitting it and
// wait on the returned Waiter. Because a confirmation can arrive before the
// submitter registers, every observed id is remembered for the lifetime of
// the registry, and a late registration completes immediately.
//
// # Usage
//
//	hub := events.NewHub("localhost:8080", events.ListenerConfig{})
//	defer hub.Close()
//
//	if err := hub.Subscribe(ctx, wallet.Address()); err != nil {
//		return err
//	}
//
//	deployID := submit(...)
//	waiter, err := hub.Register(wallet.Address(), deployID)
//	if err != nil {
//		return err
//	}
//	if !waiter.Wait(15 * time.Second) {
//		return errors.New("deploy not confirmed")
//	}
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// EventFinalized is the only event type currently pushed for wallets.
const EventFinalized = "Finalized"

// NodeType identifies which kind of node observed a deploy.
type NodeType string

const (
	NodeValidator NodeType = "Validator"
	NodeObserver  NodeType = "Observer"
)

var ErrMalformedEvent = errors.New("malformed deploy event")

// DeployEvent is a push message about a deploy made by a wallet.
type DeployEvent struct {
	Type     string   `json:"type"`
	DeployID string   `json:"deploy_id"`
	Cost     string   `json:"cost"`
	Errored  bool     `json:"errored"`
	NodeType NodeType `json:"node_type"`
}

// ParseDeployEvent decodes a push message.
func ParseDeployEvent(data []byte) (*DeployEvent, error) {
	var ev DeployEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.DeployID == "" {
		return nil, fmt.Errorf("%w: missing deploy_id", ErrMalformedEvent)
	}
	return &ev, nil
}

// IsObserverConfirmation reports whether the event confirms a deploy as seen
// by an observer node, the point at which its effects are readable.
func (e *DeployEvent) IsObserverConfirmation() bool {
	return e.NodeType == NodeObserver && (e.Type == "" || e.Type == EventFinalized)
}

// CostValue parses the stringified cost.
func (e *DeployEvent) CostValue() (uint64, error) {
	v, err := strconv.ParseUint(e.Cost, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cost %q: %w", e.Cost, err)
	}
	return v, nil
}
