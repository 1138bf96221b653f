package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SirZenith/taskmon/config"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	cmd := &cli.Command{
		Name:  "config",
		Usage: "operation for manipulating config file",
		Commands: []*cli.Command{
			subCmdInit(),
			subCmdShow(),
		},
	}

	return cmd
}

func subCmdInit() *cli.Command {
	var dir string

	cmd := &cli.Command{
		Name:  "init",
		Usage: "write config file with default values, existing values are kept",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "directory",
				Destination: &dir,
				Value:       "./",
				Max:         1,
			},
		},
		Action: func(_ context.Context, _ *cli.Command) error {
			outputName := filepath.Join(dir, config.DefaultFileName)

			c := config.Default()
			if _, err := os.Stat(outputName); err == nil {
				c, err = config.ReadConfigFile(outputName)
				if err != nil {
					log.Warnf("failed to read existing config file: %s, continue anyway", err)
					c = config.Default()
				}
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %s", dir, err)
			}

			if err := c.SaveFile(outputName); err != nil {
				return err
			}

			log.Infof("config written to %s", outputName)

			return nil
		},
	}

	return cmd
}

func subCmdShow() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "print effective config after environment and flag overrides",
		Action: func(_ context.Context, cmd *cli.Command) error {
			c, err := app.LoadConfig(cmd)
			if err != nil {
				return err
			}

			if c.PrivateKey != "" {
				c.PrivateKey = "<redacted>"
			}

			data, err := json.MarshalIndent(c, "", "    ")
			if err != nil {
				return fmt.Errorf("failed to convert data to JSON: %s", err)
			}

			fmt.Println(string(data))

			return nil
		},
	}
}
