package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/f1r3fly-io/embers-client/cmd"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "embers",
		Usage: "Embers platform wallet client",
		Flags: cmd.GlobalFlags(),
		Commands: []*cli.Command{
			cmd.AddressCommand(),
			cmd.KeygenCommand(),
			cmd.SignContractCommand(),
			cmd.DeployAuthCommand(),
			cmd.TransferCommand(),
			cmd.ListenCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
