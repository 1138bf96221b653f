package bond

import (
	"context"
	"fmt"
	"strings"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "bond",
		Usage: "bond shMONAD to task manager policy and manage unbonding",
		Commands: []*cli.Command{
			subCmdBond(),
			subCmdUnbond(),
			subCmdClaim(),
			subCmdStatus(),
		},
	}
}

func policyFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "policy",
		Usage: "policy id, current TaskManager policy when omitted",
	}
}

func checkPolicy(cmd *cli.Command) error {
	if cmd.IsSet("policy") && cmd.Int("policy") < 0 {
		return fmt.Errorf("invalid policy id %d", cmd.Int("policy"))
	}
	return nil
}

func subCmdBond() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:    "bond",
		Aliases: []string{"add"},
		Usage:   "deposit MON and bond resulting shares",
		Flags: []cli.Flag{
			policyFlag(),
			&cli.BoolFlag{
				Name:  "deposit-and-bond",
				Usage: "record operation under contract method name in history",
			},
		},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := checkPolicy(cmd); err != nil {
				return err
			}

			amount, err := app.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Infof("bonding %s", app.Amount(amount, "MON"))

			bond := a.Mutations.Bond
			if cmd.Bool("deposit-and-bond") {
				bond = a.Mutations.DepositAndBond
			}

			outcome, err := bond(ctx, app.ParsePolicy(cmd), amount)
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func subCmdUnbond() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:      "unbond",
		Usage:     "start unbonding shares from policy",
		Flags:     []cli.Flag{policyFlag()},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := checkPolicy(cmd); err != nil {
				return err
			}

			amount, err := app.ParseAmount(amountStr)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Infof("unbonding %s", app.Amount(amount, "shMON"))

			outcome, err := a.Mutations.Unbond(ctx, app.ParsePolicy(cmd), amount)
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func subCmdClaim() *cli.Command {
	var amountStr string

	return &cli.Command{
		Name:      "claim",
		Usage:     "claim shares whose unbonding period has completed",
		Flags:     []cli.Flag{policyFlag(), app.GasFlag()},
		Arguments: []cli.Argument{app.AmountArg(&amountStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := checkPolicy(cmd); err != nil {
				return err
			}

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

			log.Infof("claiming %s", app.Amount(amount, "shMON"))

			outcome, err := a.Mutations.Claim(ctx, app.ParsePolicy(cmd), amount, gas)
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func subCmdStatus() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show unbonding progress of an account",
		Flags: []cli.Flag{
			policyFlag(),
			&cli.StringFlag{
				Name:  "address",
				Usage: "account to inspect, connected wallet when omitted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := checkPolicy(cmd); err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.Account(ctx, cmd.String("address"))
			if err != nil {
				return err
			}

			policy := a.Reader.CurrentPolicyID(ctx)
			if p := app.ParsePolicy(cmd); p != nil {
				policy = *p
			}

			status, err := a.Reader.UnbondingStatus(ctx, policy, account)
			if err != nil {
				return err
			}

			fmt.Println(RenderUnbonding(policy, status))

			return nil
		},
	}
}

// RenderUnbonding formats unbonding status as a few labelled lines.
func RenderUnbonding(policy uint64, status chain.UnbondingStatus) string {
	if !status.HasPending() {
		return app.Field("policy", policy) + "\n" + app.MutedStyle.Render("no pending unbonding")
	}

	state := "waiting"
	wait := fmt.Sprintf("%d blocks (about %s)", status.BlocksRemaining(), status.EstimatedWait())
	if status.IsComplete() {
		state = "complete"
		wait = "ready to claim"
	}

	lines := []string{
		app.Field("policy", policy),
		app.Field("unbonding", app.Amount(status.Amount, "shMON")),
		app.Field("complete block", status.CompleteBlock),
		app.Field("current block", status.CurrentBlock),
		app.Field("state", app.RenderStatus(state)),
		app.Field("remaining", wait),
	}

	return strings.Join(lines, "\n")
}
