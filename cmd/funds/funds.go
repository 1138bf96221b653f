package funds

import (
	"context"
	"fmt"
	"math/big"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SirZenith/taskmon/balance"
	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "funds",
		Usage: "show MON, shMONAD, bonded and unbonding balances of an account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "account to inspect, connected wallet when omitted",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "keep refreshing until interrupted",
			},
			&cli.BoolFlag{
				Name:  "exact",
				Usage: "print exact amounts instead of locale formatted ones",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.Account(ctx, cmd.String("address"))
			if err != nil {
				return err
			}

			fetcher, err := balance.NewFetcher(a.Reader, a.Config.JobCount)
			if err != nil {
				return err
			}
			defer fetcher.Release()

			format := formatLocalized
			if cmd.Bool("exact") {
				format = formatExact
			}

			if !cmd.Bool("watch") {
				fmt.Println(Render(fetcher.Fetch(ctx, account), format))
				return nil
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Infof("refreshing every %s, press Ctrl+C to stop", a.Config.RefreshInterval)

			watcher := balance.NewWatcher(fetcher, a.Config.RefreshInterval)
			watcher.Run(ctx, account, func(snapshot balance.Snapshot) {
				fmt.Println(Render(snapshot, format))
				fmt.Println()
			})

			return nil
		},
	}
}

// AmountFormatter turns wei amount into display text.
type AmountFormatter func(wei *big.Int, unit string) string

func formatLocalized(wei *big.Int, unit string) string {
	return common.LocalizedBalance(wei, app.DisplayDecimals) + " " + unit
}

func formatExact(wei *big.Int, unit string) string {
	return common.FormatEther(wei) + " " + unit
}

// Render formats a balance snapshot as a table.
func Render(snapshot balance.Snapshot, format AmountFormatter) string {
	status := snapshot.UnbondingStatus()

	unbonding := app.MutedStyle.Render("none")
	if status.HasPending() {
		if status.IsComplete() {
			unbonding = app.RenderStatus("complete") + ", ready to claim"
		} else {
			unbonding = fmt.Sprintf(
				"%s, %d blocks left (about %s)",
				app.RenderStatus("waiting"), status.BlocksRemaining(), status.EstimatedWait(),
			)
		}
	}

	t := app.NewTable("Balance", "Amount").
		Row("MON", format(snapshot.Native, "MON")).
		Row("shMONAD", format(snapshot.ShMonad, "shMON")).
		Row("Bonded (all policies)", format(snapshot.Bonded, "shMON")).
		Row(fmt.Sprintf("Bonded (policy %d)", snapshot.PolicyID), format(snapshot.PolicyBonded, "shMON")).
		Row("Unbonding", format(snapshot.Unbonding, "shMON")).
		Row("Unbonding state", unbonding)

	lines := []string{
		app.TitleStyle.Render(snapshot.Address.Hex()),
		t.String(),
		app.MutedStyle.Render(fmt.Sprintf(
			"block %s, updated %s",
			humanize.Comma(int64(snapshot.CurrentBlock)), humanize.Time(snapshot.FetchedAt),
		)),
	}

	return strings.Join(lines, "\n")
}
