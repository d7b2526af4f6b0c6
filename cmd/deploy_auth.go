package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/deploy"
)

// DeployAuthCommand creates the deploy-auth command
func DeployAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy-auth",
		Usage: "Sign a deploy timestamp authorizing a deployer key",
		Flags: append(keyFlags(),
			&cli.StringFlag{
				Name:     "deployer",
				Usage:    "Deployer's uncompressed public key (hex)",
				Required: true,
			},
			&cli.Int64Flag{
				Name:  "version",
				Usage: "Deploy version",
			},
			&cli.Int64Flag{
				Name:  "timestamp",
				Usage: "Timestamp in Unix milliseconds (defaults to now)",
			},
		),
		Action: runDeployAuthCommand,
	}
}

func runDeployAuthCommand(ctx context.Context, cmd *cli.Command) error {
	deployer, err := hex.DecodeString(strings.TrimSpace(cmd.String("deployer")))
	if err != nil {
		return fmt.Errorf("failed to decode deployer hex: %w", err)
	}

	at := time.Now()
	if cmd.IsSet("timestamp") {
		at = time.UnixMilli(cmd.Int64("timestamp"))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	signer, err := loadKeyPair(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	auth, err := deploy.NewDeployAuth(signer, at, deployer, cmd.Int64("version"))
	if err != nil {
		return err
	}

	return printJSON(cmd, NewFormatter().FormatDeployAuth(auth, signer))
}
