// Package address derives and validates the platform's wallet addresses and
// registry URIs from secp256k1 public keys.
//
// A wallet address is the base58 encoding of
//
//	network id (3 bytes) || network version (1 byte) || id hash (32 bytes) || checksum (4 bytes)
//
// where the id hash is Keccak-256 applied twice to the public key (the
// second pass over the last 20 bytes of the first) and the checksum is the
// first 4 bytes of the Blake2b-256 digest of everything before it.
//
// # Usage
//
//	addr := address.FromPublicKey(pub)
//	parts, err := address.Decode(addr.String())
//	if err != nil {
//		log.Fatal(err)
//	}
package address

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	// PublicKeyLen is the length of an uncompressed secp256k1 public key.
	PublicKeyLen = 65

	idHashLen   = 32
	checksumLen = 4
	ethAddrLen  = 20

	// DecodedLen is the length of a decoded wallet address.
	DecodedLen = len(NetworkID) + 1 + idHashLen + checksumLen
)

var (
	// NetworkID prefixes every address on the network.
	NetworkID = [3]byte{0, 0, 0}
	// NetworkVersion follows NetworkID.
	NetworkVersion byte = 0
)

var (
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrInvalidEncoding  = errors.New("invalid base58 encoding")
	ErrInvalidLength    = errors.New("invalid address length")
	ErrChecksumMismatch = errors.New("address checksum mismatch")
)

// Address is a base58 wallet address.
type Address string

func (a Address) String() string {
	return string(a)
}

// Components is the decoded byte layout of an Address.
type Components struct {
	NetworkID      [3]byte
	NetworkVersion byte
	IDHash         [idHashLen]byte
	Checksum       [checksumLen]byte
}

// Payload returns network id || version || id hash, the bytes covered by the checksum.
func (c *Components) Payload() []byte {
	out := make([]byte, 0, DecodedLen-checksumLen)
	out = append(out, c.NetworkID[:]...)
	out = append(out, c.NetworkVersion)
	return append(out, c.IDHash[:]...)
}

// FromPublicKey derives the wallet address of an uncompressed public key.
// It panics if pub is not PublicKeyLen bytes; use FromPublicKeyChecked for
// untrusted input.
func FromPublicKey(pub []byte) Address {
	addr, err := FromPublicKeyChecked(pub)
	if err != nil {
		panic(err)
	}
	return addr
}

// FromPublicKeyChecked is FromPublicKey with length validation.
func FromPublicKeyChecked(pub []byte) (Address, error) {
	if len(pub) != PublicKeyLen {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPublicKey, PublicKeyLen, len(pub))
	}

	// The leading format byte is not part of the hashed key.
	keyHash := keccak256(pub[1:])
	idHash := keccak256(keyHash[len(keyHash)-ethAddrLen:])

	c := Components{
		NetworkID:      NetworkID,
		NetworkVersion: NetworkVersion,
	}
	copy(c.IDHash[:], idHash)
	copy(c.Checksum[:], checksum(c.Payload()))

	return Address(base58.Encode(c.bytes())), nil
}

// Decode parses an address string into its components and validates the checksum.
func Decode(s string) (*Components, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) != DecodedLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLength, DecodedLen, len(raw))
	}

	var c Components
	n := copy(c.NetworkID[:], raw)
	c.NetworkVersion = raw[n]
	n++
	n += copy(c.IDHash[:], raw[n:])
	copy(c.Checksum[:], raw[n:])

	if !bytes.Equal(checksum(c.Payload()), c.Checksum[:]) {
		return nil, ErrChecksumMismatch
	}

	return &c, nil
}

// Parse validates s and returns it as an Address.
func Parse(s string) (Address, error) {
	if _, err := Decode(s); err != nil {
		return "", err
	}
	return Address(s), nil
}

func (c *Components) bytes() []byte {
	return append(c.Payload(), c.Checksum[:]...)
}

func checksum(payload []byte) []byte {
	sum := blake2b.Sum256(payload)
	return sum[:checksumLen]
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
