// Package keys provides wallet key loading and storage.
//
// This package implements the api.KeyProvider interface for loading wallet
// keys from the embers key directory.
//
// # Key File Format
//
// Keys are stored in ~/.config/embers/keys/ with two files per key:
//
//	<key-name>.public  - Hex-encoded uncompressed public key
//	<key-name>.private - Format: "hexkey" or "hexkey:secp256k1"
//
// # Loading Keys
//
// Load a key pair using the FileKeyProvider:
//
//	provider := &keys.FileKeyProvider{KeyName: "my-wallet"}
//	kp, err := provider.GetKeyPair(context.Background())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Or read a single private key file:
//
//	kp, err := keys.LoadKeyPairFromFile("./wallet.private")
//	if err != nil {
//		log.Fatal(err)
//	}
package keys

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/f1r3fly-io/embers-client/api"
	"github.com/f1r3fly-io/embers-client/crypto"
)

// Curve is the only curve suffix accepted in private key files.
const Curve = "secp256k1"

var (
	ErrInvalidKeyFile = errors.New("invalid private key format, expected 'hexkey' or 'hexkey:secp256k1'")
	ErrKeyMismatch    = errors.New("public key file does not match private key")
	ErrKeyExists      = errors.New("key already exists")
)

var _ api.KeyProvider = (*FileKeyProvider)(nil)

// FileKeyProvider implements api.KeyProvider by reading from files
type FileKeyProvider struct {
	KeyName string
	// Dir overrides the default key directory.
	Dir string
}

// GetKeyPair loads the key pair from files
func (f *FileKeyProvider) GetKeyPair(ctx context.Context) (*crypto.KeyPair, error) {
	dir := f.Dir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	return LoadKeyPair(dir, f.KeyName)
}

// DefaultDir returns ~/.config/embers/keys.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "embers", "keys"), nil
}

// LoadKeyPair loads <name>.private from dir. If <name>.public exists it must
// match the derived public key.
func LoadKeyPair(dir, name string) (*crypto.KeyPair, error) {
	kp, err := LoadKeyPairFromFile(filepath.Join(dir, name+".private"))
	if err != nil {
		return nil, err
	}

	publicKeyBytes, err := os.ReadFile(filepath.Join(dir, name+".public"))
	if errors.Is(err, os.ErrNotExist) {
		return kp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(string(publicKeyBytes)), kp.PublicKeyHex()) {
		return nil, fmt.Errorf("%w: %s", ErrKeyMismatch, name)
	}

	return kp, nil
}

// LoadKeyPairFromFile reads a single private key file.
func LoadKeyPairFromFile(path string) (*crypto.KeyPair, error) {
	privateKeyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	return ParsePrivateKey(string(privateKeyBytes))
}

// ParsePrivateKey parses the contents of a private key file.
func ParsePrivateKey(content string) (*crypto.KeyPair, error) {
	content = strings.TrimSpace(content)
	if content == "" || strings.Count(content, ":") > 1 {
		return nil, ErrInvalidKeyFile
	}

	privateKeyHex, curve, hasCurve := strings.Cut(content, ":")
	if hasCurve && curve != Curve {
		return nil, fmt.Errorf("unsupported curve: %s, only %s is supported", curve, Curve)
	}

	kp, err := crypto.KeyPairFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return kp, nil
}

// SaveKeyPair writes <name>.private (0600) and <name>.public (0644) to dir,
// creating it if needed. Existing keys are never overwritten.
func SaveKeyPair(dir, name string, kp *crypto.KeyPair) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid key name %q", name)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	privatePath := filepath.Join(dir, name+".private")
	f, err := os.OpenFile(privatePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrKeyExists, name)
	}
	if err != nil {
		return fmt.Errorf("failed to create private key file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%s:%s\n", kp.PrivateKeyHex(), Curve); err != nil {
		f.Close()
		return fmt.Errorf("failed to write private key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write private key file: %w", err)
	}

	publicPath := filepath.Join(dir, name+".public")
	if err := os.WriteFile(publicPath, []byte(kp.PublicKeyHex()+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write public key file: %w", err)
	}
	return nil
}
