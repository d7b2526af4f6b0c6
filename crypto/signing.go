// Package crypto provides the secp256k1 key material and signatures used to
// authenticate deploys.
//
// This package provides:
//   - secp256k1 key pairs, generated or reconstructed from a hex scalar
//   - ECDSA signing over the Blake2b-256 digest of the message
//   - DER encoding of signatures, as expected by the platform
//   - Verification against uncompressed public key bytes
//
// # Key Pairs
//
// Generate a fresh key pair or load a pre-funded one:
//
//	kp, err := crypto.GenerateKeyPair()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	funded, err := crypto.KeyPairFromHex("0b4e12ec...")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Signing
//
// Signatures are deterministic (RFC 6979) and DER encoded:
//
//	sig := kp.Sign(data)
//
// # Verification
//
//	if err := crypto.Verify(kp.PublicKeyBytes(), data, sig); err != nil {
//		log.Fatal(err)
//	}
package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/blake2b"
)

// SigAlgorithm is the algorithm identifier transmitted alongside signatures.
const SigAlgorithm = "secp256k1"

var (
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("signature verification failed")
	// ErrInvalidPublicKey is returned when public key bytes cannot be parsed.
	ErrInvalidPublicKey = errors.New("invalid secp256k1 public key")
)

// Digest returns the Blake2b-256 digest that signatures are computed over.
func Digest(data []byte) [32]byte {
	return blake2b.Sum256(data)
}

// SignDigest signs a precomputed 32-byte digest and returns a DER signature.
func SignDigest(key *btcec.PrivateKey, digest [32]byte) []byte {
	return ecdsa.Sign(key, digest[:]).Serialize()
}

// Verify checks a DER signature over data against public key bytes in any
// SEC1 encoding (compressed or uncompressed).
func Verify(publicKey []byte, data []byte, signature []byte) error {
	pub, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return fmt.Errorf("failed to parse DER signature: %w", err)
	}

	digest := Digest(data)
	if !sig.Verify(digest[:], pub) {
		return ErrInvalidSignature
	}

	return nil
}
