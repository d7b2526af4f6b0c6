package address

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tv42/zbase32"
	"golang.org/x/crypto/blake2b"
)

// URIPrefix is the scheme prefix of registry URIs.
const URIPrefix = "rho:id:"

const (
	uriBits   = 270
	uriRawLen = blake2b.Size256 + 2
	crc14Poly = 0x4805
	crc14Mask = 0x3fff
)

var (
	ErrInvalidURIPrefix   = errors.New("invalid uri prefix")
	ErrInvalidURIEncoding = errors.New("invalid zbase32 encoding")
	ErrURIChecksum        = errors.New("uri checksum mismatch")
)

// URIFromPublicKey derives the registry URI (rho:id:...) of an uncompressed
// public key: Blake2b-256 of the key, followed by a CRC-14 of that hash,
// zbase32 encoded to 270 bits.
func URIFromPublicKey(pub []byte) string {
	hash := blake2b.Sum256(pub)
	full := append(hash[:], crcBytes(crc14(hash[:]))...)
	return URIPrefix + zbase32.EncodeBitsToString(full, uriBits)
}

// ParseURI validates a registry URI and returns the hash it names.
func ParseURI(s string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(s, URIPrefix)
	if !ok {
		return nil, ErrInvalidURIPrefix
	}

	raw, err := zbase32.DecodeBitsString(encoded, uriBits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURIEncoding, err)
	}
	if len(raw) != uriRawLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidLength, uriRawLen, len(raw))
	}

	hash := raw[:blake2b.Size256]
	// The low two bits of the last byte are padding and not carried by the encoding.
	want := crcBytes(crc14(hash))
	if raw[blake2b.Size256] != want[0] || raw[blake2b.Size256+1]&^0x03 != want[1] {
		return nil, ErrURIChecksum
	}

	return hash, nil
}

// crcBytes lays a 14-bit CRC out as little-endian bytes with the high byte
// shifted into the top of its octet.
func crcBytes(crc uint16) []byte {
	return []byte{byte(crc), byte(crc>>8) << 2}
}

// crc14 is CRC-14 with polynomial 0x4805, zero init, no reflection and no final xor.
func crc14(data []byte) uint16 {
	var reg uint16
	for _, b := range data {
		reg ^= uint16(b) << 6
		for range 8 {
			if reg&0x2000 != 0 {
				reg = (reg<<1 ^ crc14Poly) & crc14Mask
			} else {
				reg = (reg << 1) & crc14Mask
			}
		}
	}
	return reg
}
