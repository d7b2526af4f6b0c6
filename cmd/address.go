package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/address"
)

// AddressCommand creates the address command
func AddressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Derive the wallet address and registry URI of a key",
		Flags: append(keyFlags(),
			&cli.StringFlag{
				Name:  "public-key",
				Usage: "Uncompressed public key (hex) instead of a private key",
			},
		),
		Action: runAddressCommand,
	}
}

func runAddressCommand(ctx context.Context, cmd *cli.Command) error {
	formatter := NewFormatter()

	if pubHex := cmd.String("public-key"); pubHex != "" {
		pub, err := hex.DecodeString(strings.TrimSpace(pubHex))
		if err != nil {
			return fmt.Errorf("failed to decode public key hex: %w", err)
		}
		addr, err := address.FromPublicKeyChecked(pub)
		if err != nil {
			return fmt.Errorf("failed to derive address: %w", err)
		}
		return printJSON(cmd, formatter.FormatPublicKey(pub, addr))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kp, err := loadKeyPair(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	return printJSON(cmd, formatter.FormatKeyPair(kp))
}
