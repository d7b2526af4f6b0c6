package cmd

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/deploy"
)

// SignContractCommand creates the sign-contract command
func SignContractCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign-contract",
		Usage: "Sign a prepared contract for the send phase of an update",
		Flags: append(keyFlags(),
			&cli.StringFlag{
				Name:  "contract",
				Usage: "Prepared contract (standard base64)",
			},
			&cli.StringFlag{
				Name:  "contract-file",
				Usage: "Path to raw contract bytes, encoded before signing",
			},
		),
		Action: runSignContractCommand,
	}
}

func runSignContractCommand(ctx context.Context, cmd *cli.Command) error {
	contract := cmd.String("contract")
	if path := cmd.String("contract-file"); path != "" {
		if contract != "" {
			return errors.New("--contract and --contract-file are mutually exclusive")
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read contract file: %w", err)
		}
		contract = base64.StdEncoding.EncodeToString(raw)
	}
	if contract == "" {
		return errors.New("one of --contract or --contract-file is required")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	kp, err := loadKeyPair(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	signed, err := deploy.SignContract(kp, contract)
	if err != nil {
		return fmt.Errorf("failed to sign contract: %w", err)
	}

	return printJSON(cmd, signed)
}
