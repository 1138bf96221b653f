package stake

import (
	"context"

	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "stake",
		Usage: "convert between MON and shMONAD",
		Commands: []*cli.Command{
			subCmdDeposit(),
			subCmdWithdraw(),
			subCmdRedeem(),
		},
	}
}

func subCmdDeposit() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:  "deposit",
		Usage: "deposit MON and receive shMONAD",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "receiver",
				Usage: "address receiving minted shares, connected account when omitted",
			},
			app.GasFlag(),
		},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			amount, err := app.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			gas, err := app.ParseGas(cmd.String("gas"))
			if err != nil {
				return err
			}

			receiver, err := app.ParseAddress(cmd.String("receiver"))
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Infof("depositing %s", app.Amount(amount, "MON"))

			if cmd.IsSet("receiver") {
				outcome, err := a.Mutations.Deposit(ctx, amount, receiver)
				a.ReportOutcome(outcome)
				return err
			}

			outcome, err := a.Mutations.Stake(ctx, amount, gas)
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func subCmdWithdraw() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:      "withdraw",
		Aliases:   []string{"unstake"},
		Usage:     "withdraw MON by burning shMONAD",
		Flags:     []cli.Flag{app.GasFlag()},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			amount, err := app.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			gas, err := app.ParseGas(cmd.String("gas"))
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Infof("withdrawing %s", app.Amount(amount, "MON"))

			outcome, err := a.Mutations.Unstake(ctx, amount, gas)
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func subCmdRedeem() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:  "redeem",
		Usage: "redeem shMONAD shares for MON",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "receiver",
				Usage: "address receiving MON, connected account when omitted",
			},
			app.GasFlag(),
		},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			amount, err := app.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			gas, err := app.ParseGas(cmd.String("gas"))
			if err != nil {
				return err
			}

			receiver, err := app.ParseAddress(cmd.String("receiver"))
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Infof("redeeming %s", app.Amount(amount, "shMON"))

			outcome, err := a.Mutations.Redeem(ctx, amount, receiver, gas)
			a.ReportOutcome(outcome)
			return err
		},
	}
}
