package deploy

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/f1r3fly-io/embers-client/address"
	"github.com/f1r3fly-io/embers-client/rho"
)

// DeployAuth is the wire form of a signed deploy timestamp.
type DeployAuth struct {
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	URIPubKey string `json:"uri_pub_key"`
	Signature string `json:"signature"`
}

// AuthRecord builds the (timestamp, deployer, version) tuple that a deploy
// authorization signs.
func AuthRecord(timestampMs int64, deployer []byte, version int64) rho.Par {
	return rho.Tuple(rho.Int(timestampMs), rho.Bytes(deployer), rho.Int(version))
}

// SignDeployAuth signs the encoded auth record with signer and returns the
// DER signature.
func SignDeployAuth(signer Signer, timestampMs int64, deployer []byte, version int64) ([]byte, error) {
	if len(deployer) != address.PublicKeyLen {
		return nil, fmt.Errorf("%w: deployer key must be %d bytes, got %d",
			address.ErrInvalidPublicKey, address.PublicKeyLen, len(deployer))
	}
	return signer.Sign(AuthRecord(timestampMs, deployer, version).Marshal()), nil
}

// NewDeployAuth signs a deploy timestamp taken from at, truncated to milliseconds.
func NewDeployAuth(signer Signer, at time.Time, deployer []byte, version int64) (*DeployAuth, error) {
	ts := at.UnixMilli()

	sig, err := SignDeployAuth(signer, ts, deployer, version)
	if err != nil {
		return nil, fmt.Errorf("failed to sign deploy timestamp: %w", err)
	}

	return &DeployAuth{
		Timestamp: strconv.FormatInt(ts, 10),
		Version:   strconv.FormatInt(version, 10),
		URIPubKey: hex.EncodeToString(signer.PublicKeyBytes()),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}
