package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/SirZenith/taskmon/api"
	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/database"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/SirZenith/taskmon/usertask"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run user task backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bind",
				Usage: "listening address, overrides config",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "sqlite database path, overrides config",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			bindAddress := common.GetStrOr(cmd.String("bind"), cfg.BindAddress)
			dbPath := common.GetStrOr(cmd.String("db"), cfg.DatabasePath)

			db, err := database.Open(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := database.Close(db); err != nil {
					log.Warnf("%s", err)
				}
			}()

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			common.LogBannerMsg([]string{
				"user task backend",
				"listen:   " + bindAddress,
				"database: " + dbPath,
			}, 2)

			server := api.NewServer(usertask.NewService(db), bindAddress)

			return server.Run(ctx)
		},
	}
}
