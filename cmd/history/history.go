package history

import (
	"context"
	"fmt"

	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/history"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/SirZenith/taskmon/wallet"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "show or clear local transaction history",
		Commands: []*cli.Command{
			subCmdList(),
			subCmdClear(),
		},
	}
}

// openHistory opens history file without connecting to chain.
func openHistory(cmd *cli.Command) (*history.History, string, error) {
	cfg, err := app.LoadConfig(cmd)
	if err != nil {
		return nil, "", err
	}

	return history.New(history.NewFileStorage(cfg.HistoryFile)), cfg.ExplorerURL, nil
}

func subCmdList() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list recorded transactions, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "maximum number of entries to show, 0 for all",
			},
			&cli.BoolFlag{
				Name:  "links",
				Usage: "show block explorer link of each transaction",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			h, explorer, err := openHistory(cmd)
			if err != nil {
				return err
			}

			entries := h.Sorted()
			if len(entries) == 0 {
				log.Info("no transaction history")
				return nil
			}

			if limit := int(cmd.Int("limit")); limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}

			if !cmd.Bool("links") {
				explorer = ""
			}

			fmt.Println(Render(entries, explorer))

			return nil
		},
	}
}

// Render formats history entries as a table. Explorer link column is added
// when explorer is not empty.
func Render(entries []history.Transaction, explorer string) string {
	headers := []string{"Time", "Action", "Status", "Transaction"}
	if explorer != "" {
		headers = append(headers, "Link")
	}

	t := app.NewTable(headers...)
	for _, tx := range entries {
		row := []string{
			app.RelativeTime(tx.Timestamp),
			common.Capitalize(tx.Method()),
			app.RenderStatus(string(tx.Status)),
			common.DisplayHash(tx.Hash),
		}

		if explorer != "" {
			row = append(row, common.ExplorerTxURL(explorer, tx.Hash))
		}

		t.Row(row...)
	}

	return t.String()
}

func subCmdClear() *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "remove every recorded transaction",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "skip confirmation",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			h, _, err := openHistory(cmd)
			if err != nil {
				return err
			}

			if !cmd.Bool("yes") {
				ok, err := wallet.Confirm("Clear all transaction history?")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}

			h.Clear()
			log.Info("transaction history cleared")

			return nil
		},
	}
}
