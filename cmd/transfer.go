package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/address"
)

// TransferCommand creates the transfer command
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer tokens and wait for the deploy to be finalized",
		Flags: append(keyFlags(),
			&cli.StringFlag{
				Name:     "to",
				Usage:    "Recipient wallet address",
				Required: true,
			},
			&cli.Int64Flag{
				Name:     "amount",
				Usage:    "Amount to transfer",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "description",
				Usage: "Optional transfer description",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Confirmation timeout (defaults to confirm_timeout from config)",
			},
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Return after submitting without waiting for confirmation",
			},
		),
		Action: runTransferCommand,
	}
}

func runTransferCommand(ctx context.Context, cmd *cli.Command) error {
	to, err := address.Parse(cmd.String("to"))
	if err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	amount := cmd.Int64("amount")

	var description *string
	if cmd.IsSet("description") {
		d := cmd.String("description")
		description = &d
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr(cmd))
	if err != nil {
		return err
	}
	wallet, err := loadKeyPair(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	client := newClient(cfg, logger, nil)
	defer client.Close()

	wait := !cmd.Bool("no-wait")
	if wait {
		// Subscribe first so the confirmation cannot arrive unobserved.
		subCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		err := client.Wallets.Listen(subCtx, wallet)
		cancel()
		if err != nil {
			return err
		}
	}

	update, err := client.Wallets.Transfer(ctx, wallet, to, amount, description)
	if err != nil {
		return err
	}

	formatter := NewFormatter()
	fmt.Fprint(stderr(cmd), formatter.FormatSummary("Transfer Submitted", []Field{
		{Label: "From", Value: wallet.Address().String()},
		{Label: "To", Value: to.String()},
		{Label: "Deploy ID", Value: update.DeployID},
	}, ""))

	if wait {
		if err := update.WaitForSync(cmd.Duration("timeout")); err != nil {
			return err
		}
		fmt.Fprint(stderr(cmd), formatter.FormatSummary("Transfer Finalized", []Field{
			{Label: "Deploy observed by an observer node"},
		}, ""))
	}

	return printJSON(cmd, formatter.FormatTransfer(wallet.Address(), to, amount, update.DeployID, wait))
}
