package keys

import (
	"context"
	"fmt"
	"strings"

	"github.com/f1r3fly-io/embers-client/api"
	"github.com/f1r3fly-io/embers-client/crypto"
)

var _ api.KeyProvider = (*MemoryKeyProvider)(nil)

// MemoryKeyProvider provides a key pair held in memory, e.g. from an
// environment variable.
type MemoryKeyProvider struct {
	publicKey  string
	privateKey string
}

// NewMemoryKeyProvider creates a provider for privateKey, in private key file
// format. A non-empty publicKey (hex) must match it.
func NewMemoryKeyProvider(publicKey, privateKey string) *MemoryKeyProvider {
	return &MemoryKeyProvider{
		publicKey:  strings.TrimSpace(publicKey),
		privateKey: privateKey,
	}
}

// GetKeyPair implements api.KeyProvider interface
func (m *MemoryKeyProvider) GetKeyPair(ctx context.Context) (*crypto.KeyPair, error) {
	kp, err := ParsePrivateKey(m.privateKey)
	if err != nil {
		return nil, err
	}
	if m.publicKey != "" && !strings.EqualFold(m.publicKey, kp.PublicKeyHex()) {
		return nil, fmt.Errorf("%w: in-memory key", ErrKeyMismatch)
	}
	return kp, nil
}
