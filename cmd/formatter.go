package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/deploy"
	"github.com/f1r3fly-io/embers-client/events"
)

// Formatter formats keys, deploys and events for display
type Formatter struct{}

// NewFormatter creates a new formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Field is one labelled line of a summary.
type Field struct {
	Label string
	Value string
}

// FormatSummary formats a titled block of checked fields for stderr
func (f *Formatter) FormatSummary(title string, fields []Field, indent string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("\n%s=== %s ===\n", indent, title))
	for _, field := range fields {
		if field.Value == "" {
			sb.WriteString(fmt.Sprintf("%s✓ %s\n", indent, field.Label))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s✓ %s: %s\n", indent, field.Label, field.Value))
	}
	return sb.String()
}

// ShortHex abbreviates long hex strings to their first 16 characters
func (f *Formatter) ShortHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) > 16 {
		s = s[:16] + "..."
	}
	return s
}

// FormatKeyPair formats the public identity of a key pair for JSON output
func (f *Formatter) FormatKeyPair(kp *crypto.KeyPair) map[string]interface{} {
	return map[string]interface{}{
		"address":   kp.Address().String(),
		"uri":       kp.URI(),
		"publicKey": kp.PublicKeyHex(),
	}
}

// FormatPublicKey formats the identity derived from a bare public key
func (f *Formatter) FormatPublicKey(pub []byte, addr address.Address) map[string]interface{} {
	return map[string]interface{}{
		"address":   addr.String(),
		"uri":       address.URIFromPublicKey(pub),
		"publicKey": hex.EncodeToString(pub),
	}
}

// FormatDeployAuth formats a signed deploy timestamp for JSON output
func (f *Formatter) FormatDeployAuth(auth *deploy.DeployAuth, signer *crypto.KeyPair) map[string]interface{} {
	return map[string]interface{}{
		"deploy":    auth,
		"signerUri": signer.URI(),
	}
}

// FormatTransfer formats the outcome of a transfer for JSON output
func (f *Formatter) FormatTransfer(from, to address.Address, amount int64, deployID string, confirmed bool) map[string]interface{} {
	return map[string]interface{}{
		"from":      from.String(),
		"to":        to.String(),
		"amount":    amount,
		"deployId":  deployID,
		"confirmed": confirmed,
	}
}

// FormatEvent formats a push event for one JSON line of output
func (f *Formatter) FormatEvent(addr address.Address, ev *events.DeployEvent) map[string]interface{} {
	output := map[string]interface{}{
		"address":  addr.String(),
		"deployId": ev.DeployID,
		"errored":  ev.Errored,
		"nodeType": string(ev.NodeType),
	}

	if ev.Type != "" {
		output["type"] = ev.Type
	}
	if cost, err := ev.CostValue(); err == nil {
		output["cost"] = cost
	}

	return output
}
