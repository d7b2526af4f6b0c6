// Package testdata provides embedded test fixtures for use across all test packages.
package testdata

import _ "embed"

// WalletPrivate is a funded wallet's private key file ("hexkey:secp256k1")
//
//go:embed wallet.private
var WalletPrivate []byte

// WalletPublic is the matching uncompressed public key in hex
//
//go:embed wallet.public
var WalletPublic []byte

// WalletAddress is the address derived from WalletPublic
const WalletAddress = "11117Jv1oQo1qkxrKrHXumDZu183yoPRhRXJgqy2D3Gh53bUUZYqY"
