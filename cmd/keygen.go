package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/crypto"
	"github.com/f1r3fly-io/embers-client/keys"
)

// KeygenCommand creates the keygen command
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a wallet key and store it in the key directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "Key name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "keys-dir",
				Usage: "Key directory (defaults to keys.dir from config or ~/.config/embers/keys)",
			},
			&cli.BoolFlag{
				Name:  "testnet",
				Usage: "Request a funded wallet from the testnet instead of generating one locally",
			},
		},
		Action: runKeygenCommand,
	}
}

func runKeygenCommand(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir := cmd.String("keys-dir")
	if dir == "" {
		dir = cfg.Keys.Dir
	}
	if dir == "" {
		if dir, err = keys.DefaultDir(); err != nil {
			return err
		}
	}

	var kp *crypto.KeyPair
	if cmd.Bool("testnet") {
		client := newClient(cfg, zerolog.Nop(), nil)
		defer client.Close()

		if kp, err = client.Testnet.TestWallet(ctx); err != nil {
			return err
		}
	} else if kp, err = crypto.GenerateKeyPair(); err != nil {
		return err
	}

	name := cmd.String("name")
	if err := keys.SaveKeyPair(dir, name, kp); err != nil {
		return fmt.Errorf("failed to save key %s: %w", name, err)
	}

	formatter := NewFormatter()
	fmt.Fprint(stderr(cmd), formatter.FormatSummary("Key Generated", []Field{
		{Label: "Name", Value: name},
		{Label: "Directory", Value: dir},
		{Label: "Public key", Value: formatter.ShortHex(kp.PublicKeyBytes())},
	}, ""))

	return printJSON(cmd, formatter.FormatKeyPair(kp))
}
