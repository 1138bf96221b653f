package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/database"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "database",
		Usage: "user task database management utility",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db",
				Usage: "sqlite database path, overrides config",
			},
		},
		Commands: []*cli.Command{
			subcmdExport(),
			subcmdImport(),
			subcmdMigrate(),
		},
	}
}

// withDatabase opens database named by --db flag or config and runs action
// with it.
func withDatabase(cmd *cli.Command, action func(db *gorm.DB) error) error {
	cfg, err := app.LoadConfig(cmd)
	if err != nil {
		return err
	}

	dbPath := common.GetStrOr(cmd.String("db"), cfg.DatabasePath)

	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}

	err = action(db)
	if closeErr := database.Close(db); closeErr != nil {
		log.Warnf("%s", closeErr)
	}

	return err
}

func checkTableName(tableName string) error {
	if database.GetModel(tableName) == nil {
		return fmt.Errorf("invalid table name %q, expecting one of %s", tableName, strings.Join(database.TableNames(), ", "))
	}
	return nil
}

func subcmdExport() *cli.Command {
	var tableName string
	var csvFilePath string

	return &cli.Command{
		Name:  "export",
		Usage: "export data as CSV",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "table-name",
				UsageText:   "<table>",
				Destination: &tableName,
				Min:         1,
				Max:         1,
			},
			&cli.StringArg{
				Name:        "csv-file",
				UsageText:   " <csv>",
				Destination: &csvFilePath,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := checkTableName(tableName); err != nil {
				return err
			}

			return withDatabase(cmd, func(db *gorm.DB) error {
				if err := database.ExportCSV(db, tableName, csvFilePath); err != nil {
					return err
				}

				log.Infof("table %s exported to %s", tableName, csvFilePath)

				return nil
			})
		},
	}
}

func subcmdImport() *cli.Command {
	var csvFilePath string
	var tableName string

	return &cli.Command{
		Name:  "import",
		Usage: "import data from CSV, rows with existing id are overwritten",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "csv-file",
				UsageText:   "<csv>",
				Destination: &csvFilePath,
				Min:         1,
				Max:         1,
			},
			&cli.StringArg{
				Name:        "table-name",
				UsageText:   " <table-name>",
				Destination: &tableName,
				Min:         1,
				Max:         1,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if err := checkTableName(tableName); err != nil {
				return err
			}

			return withDatabase(cmd, func(db *gorm.DB) error {
				count, err := database.ImportCSV(db, tableName, csvFilePath)
				if err != nil {
					return err
				}

				log.Infof("%d row(s) imported into %s", count, tableName)

				return nil
			})
		},
	}
}

func subcmdMigrate() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "auto migrate database schema",
		Action: func(_ context.Context, cmd *cli.Command) error {
			return withDatabase(cmd, database.Migrate)
		},
	}
}
