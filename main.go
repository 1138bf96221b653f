package main

import (
	"context"
	"fmt"
	"os"

	"github.com/SirZenith/taskmon/cmd/bond"
	"github.com/SirZenith/taskmon/cmd/config"
	"github.com/SirZenith/taskmon/cmd/database"
	"github.com/SirZenith/taskmon/cmd/docs"
	"github.com/SirZenith/taskmon/cmd/funds"
	"github.com/SirZenith/taskmon/cmd/history"
	"github.com/SirZenith/taskmon/cmd/serve"
	"github.com/SirZenith/taskmon/cmd/stake"
	"github.com/SirZenith/taskmon/cmd/task"
	"github.com/SirZenith/taskmon/cmd/wallet"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:    "taskmon",
		Usage:   "staking, bonding and task scheduling client for shMONAD and TaskManager on Monad",
		Version: "0.1.0",
		Flags:   app.GlobalFlags(),
		Commands: []*cli.Command{
			stake.Cmd(),
			bond.Cmd(),
			funds.Cmd(),
			task.Cmd(),
			history.Cmd(),
			wallet.Cmd(),
			docs.Cmd(),
			serve.Cmd(),
			database.Cmd(),
			config.Cmd(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
