package wallet

import (
	"context"
	"fmt"

	"github.com/SirZenith/taskmon/internal/app"
	"github.com/SirZenith/taskmon/wallet"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "unlock signing key and manage keystore",
		Commands: []*cli.Command{
			subCmdConnect(),
			subCmdAddress(),
		},
	}
}

func openWallet(cmd *cli.Command) (*wallet.Wallet, error) {
	cfg, err := app.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return wallet.New(wallet.Options{
		PrivateKey:   cfg.PrivateKey,
		KeystoreFile: cfg.KeystoreFile,
	}, wallet.SurveyPrompter{}), nil
}

func subCmdConnect() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "unlock a key, optionally saving it as encrypted keystore",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "save",
				Usage: "write unlocked key to keystore file at this path",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := openWallet(cmd)
			if err != nil {
				return err
			}

			if err := w.Connect(ctx); err != nil {
				return err
			}
			defer w.Disconnect()

			log.Info(app.Field("connected", w.Address().Hex()))

			savePath := cmd.String("save")
			if savePath == "" {
				return nil
			}

			password, err := askNewPassword(wallet.SurveyPrompter{})
			if err != nil {
				return err
			}

			if err := w.SaveKeystore(savePath, password, keystore.StandardScryptN, keystore.StandardScryptP); err != nil {
				return err
			}

			log.Infof("keystore saved to %s", savePath)

			return nil
		},
	}
}

// askNewPassword asks for a password twice.
func askNewPassword(prompter wallet.Prompter) (string, error) {
	password, err := prompter.Password("Keystore password:")
	if err != nil {
		return "", err
	}

	if password == "" {
		return "", fmt.Errorf("empty keystore password")
	}

	repeat, err := prompter.Password("Repeat password:")
	if err != nil {
		return "", err
	}

	if repeat != password {
		return "", fmt.Errorf("passwords do not match")
	}

	return password, nil
}

func subCmdAddress() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "print address of configured key",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			w, err := openWallet(cmd)
			if err != nil {
				return err
			}

			if err := w.Connect(ctx); err != nil {
				return err
			}
			defer w.Disconnect()

			fmt.Println(w.Address().Hex())

			return nil
		},
	}
}
