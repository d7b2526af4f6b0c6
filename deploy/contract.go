// Package deploy builds the signed payloads submitted to the platform: signed
// contracts for the second phase of a prepare/send exchange, and signed
// deploy timestamps that authorize a deployer on behalf of a registry key.
//
// # Contracts
//
// Prepare endpoints return an opaque contract as standard base64. The
// client decodes it, signs the raw bytes and sends the result back:
//
//	signed, err := deploy.SignContract(kp, prepared.Contract)
//	if err != nil {
//		return err
//	}
//
// # Deploy timestamps
//
//	auth, err := deploy.NewDeployAuth(envKey, time.Now(), wallet.PublicKeyBytes(), 0)
//	if err != nil {
//		return err
//	}
package deploy

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/f1r3fly-io/embers-client/crypto"
)

// ErrInvalidContract is returned when a contract payload is not strict base64.
var ErrInvalidContract = errors.New("invalid contract encoding")

// SignedContract is the wire form of a signed prepared contract.
type SignedContract struct {
	Contract     string `json:"contract"`
	SigAlgorithm string `json:"sig_algorithm"`
	Sig          string `json:"sig"`
	Deployer     string `json:"deployer"`
}

// Signer produces signatures with a secp256k1 key. *crypto.KeyPair implements it.
type Signer interface {
	Sign(data []byte) []byte
	PublicKeyBytes() []byte
}

// SignContract decodes a base64 contract and signs the raw bytes. The
// contract is echoed back unchanged; sig and deployer are standard base64.
func SignContract(signer Signer, contract string) (*SignedContract, error) {
	raw, err := DecodeContract(contract)
	if err != nil {
		return nil, err
	}

	return &SignedContract{
		Contract:     contract,
		SigAlgorithm: crypto.SigAlgorithm,
		Sig:          base64.StdEncoding.EncodeToString(signer.Sign(raw)),
		Deployer:     base64.StdEncoding.EncodeToString(signer.PublicKeyBytes()),
	}, nil
}

// DecodeContract decodes padded standard base64, rejecting line breaks,
// missing padding and non-zero trailing bits.
func DecodeContract(contract string) ([]byte, error) {
	// The decoder silently drops CR and LF, even in strict mode.
	if strings.ContainsAny(contract, "\r\n") {
		return nil, fmt.Errorf("%w: contains line breaks", ErrInvalidContract)
	}

	raw, err := base64.StdEncoding.Strict().DecodeString(contract)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContract, err)
	}
	return raw, nil
}

// Verify checks the signature against the embedded deployer key.
func (s *SignedContract) Verify() error {
	if s.SigAlgorithm != crypto.SigAlgorithm {
		return fmt.Errorf("unsupported signature algorithm %q", s.SigAlgorithm)
	}

	raw, err := DecodeContract(s.Contract)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(s.Sig)
	if err != nil {
		return fmt.Errorf("failed to decode signature: %w", err)
	}
	pub, err := base64.StdEncoding.DecodeString(s.Deployer)
	if err != nil {
		return fmt.Errorf("failed to decode deployer key: %w", err)
	}

	return crypto.Verify(pub, raw, sig)
}
