package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/f1r3fly-io/embers-client/address"
)

// ErrInvalidPrivateKey is returned when a private scalar is malformed or out of range.
var ErrInvalidPrivateKey = errors.New("invalid secp256k1 private key")

// KeyPair is an immutable secp256k1 key pair. The private scalar never
// leaves the struct; only the public key and signatures are exposed.
type KeyPair struct {
	private *btcec.PrivateKey
	public  []byte

	addrOnce sync.Once
	addr     address.Address
}

// GenerateKeyPair creates a key pair from a fresh random scalar.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate secp256k1 key: %w", err)
	}
	return newKeyPair(priv), nil
}

// KeyPairFromHex reconstructs a key pair from a 32-byte hex encoded scalar.
// Upper and lower case hex are both accepted.
func KeyPairFromHex(s string) (*KeyPair, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key hex: %w", err)
	}
	return KeyPairFromBytes(raw)
}

// KeyPairFromBytes reconstructs a key pair from a 32-byte big-endian scalar.
func KeyPairFromBytes(raw []byte) (*KeyPair, error) {
	if len(raw) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPrivateKey, btcec.PrivKeyBytesLen, len(raw))
	}

	d := new(big.Int).SetBytes(raw)
	if d.Sign() == 0 || d.Cmp(btcec.S256().N) >= 0 {
		return nil, fmt.Errorf("%w: scalar out of range", ErrInvalidPrivateKey)
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	return newKeyPair(priv), nil
}

func newKeyPair(priv *btcec.PrivateKey) *KeyPair {
	return &KeyPair{
		private: priv,
		public:  priv.PubKey().SerializeUncompressed(),
	}
}

// PublicKeyBytes returns the uncompressed public key (0x04 || X || Y).
func (k *KeyPair) PublicKeyBytes() []byte {
	out := make([]byte, len(k.public))
	copy(out, k.public)
	return out
}

// PublicKeyHex returns the uncompressed public key as lowercase hex.
func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.public)
}

// PrivateKeyHex returns the private scalar as lowercase hex. It exists for
// key files and test wallets handed out by the platform; callers own the
// secrecy of the result.
func (k *KeyPair) PrivateKeyHex() string {
	return hex.EncodeToString(k.private.Serialize())
}

// Address returns the wallet address of this key pair. The address is
// derived on first use and cached for the lifetime of the key pair.
func (k *KeyPair) Address() address.Address {
	k.addrOnce.Do(func() {
		k.addr = address.FromPublicKey(k.public)
	})
	return k.addr
}

// URI returns the registry URI (rho:id:...) of this key pair.
func (k *KeyPair) URI() string {
	return address.URIFromPublicKey(k.public)
}

// Sign signs data with the private key. The message is hashed with
// Blake2b-256 and signed with a deterministic nonce; the result is DER.
func (k *KeyPair) Sign(data []byte) []byte {
	return SignDigest(k.private, Digest(data))
}

// Verify checks a signature produced by Sign against this key pair.
func (k *KeyPair) Verify(data []byte, signature []byte) error {
	return Verify(k.public, data, signature)
}
