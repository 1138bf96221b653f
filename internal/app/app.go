// Package app wires configuration and services shared by subcommands.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/client"
	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/config"
	"github.com/SirZenith/taskmon/history"
	"github.com/SirZenith/taskmon/mutation"
	"github.com/SirZenith/taskmon/network"
	"github.com/SirZenith/taskmon/tracker"
	"github.com/SirZenith/taskmon/wallet"
	"github.com/charmbracelet/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v3"
)

// GlobalFlags are defined on root command and read by every subcommand.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to JSON config file",
			Value:   config.DefaultFileName,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level, one of debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "rpc-url",
			Usage: "JSON-RPC endpoint, overrides config",
		},
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "user task backend base URL, overrides config",
		},
		&cli.StringFlag{
			Name:  "keystore",
			Usage: "keystore file used for signing, overrides config",
		},
	}
}

// LoadConfig reads config file named by root command flags and applies flag
// overrides on top of it.
func LoadConfig(cmd *cli.Command) (config.Config, error) {
	root := cmd.Root()

	cfg, err := config.Load(root.String("config"))
	if err != nil {
		return cfg, err
	}

	cfg.LogLevel = common.GetStrOr(root.String("log-level"), cfg.LogLevel)
	cfg.RPCURL = common.GetStrOr(root.String("rpc-url"), cfg.RPCURL)
	cfg.APIURL = common.GetStrOr(root.String("api-url"), cfg.APIURL)
	cfg.KeystoreFile = common.GetStrOr(root.String("keystore"), cfg.KeystoreFile)

	cfg.ApplyLogLevel()

	return cfg, nil
}

// App holds services built from config.
type App struct {
	Config config.Config

	HTTPClient *http.Client
	RPC        *ethclient.Client
	Resolver   *chain.Resolver
	Reader     *chain.Reader
	Writer     *chain.Writer

	Wallet    *wallet.Wallet
	History   *history.History
	Tracker   *tracker.Tracker
	UserTasks *client.UserTasksAPI
	Mutations *mutation.Service
}

// New loads config and connects to JSON-RPC endpoint.
func New(ctx context.Context, cmd *cli.Command) (*App, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg config.Config) (*App, error) {
	httpClient, err := network.NewHTTPClient(network.Options{
		Timeout: cfg.RequestTimeout,
		Proxy:   cfg.Proxy,
	})
	if err != nil {
		return nil, err
	}

	rpcClient, err := chain.Dial(ctx, cfg.RPCURL, httpClient)
	if err != nil {
		return nil, err
	}

	if !ethcommon.IsHexAddress(cfg.AddressHub) {
		rpcClient.Close()
		return nil, fmt.Errorf("invalid AddressHub address %q", cfg.AddressHub)
	}

	resolver, err := chain.NewResolver(rpcClient, ethcommon.HexToAddress(cfg.AddressHub), cfg.AddressCacheTTL)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		HTTPClient: httpClient,
		RPC:        rpcClient,
		Resolver:   resolver,
		Reader:     chain.NewReader(rpcClient, resolver),
		Writer:     chain.NewWriter(rpcClient, cfg.ChainID),
		History:    history.New(history.NewFileStorage(cfg.HistoryFile)),
		UserTasks:  client.NewUserTasksAPI(cfg.APIURL, httpClient),
	}

	a.Wallet = wallet.New(wallet.Options{
		PrivateKey:   cfg.PrivateKey,
		KeystoreFile: cfg.KeystoreFile,
	}, wallet.SurveyPrompter{})

	a.Tracker = tracker.New(rpcClient, a.History, tracker.NewLogNotifier(), tracker.Options{
		ReceiptTimeout: cfg.ReceiptTimeout,
		PollInterval:   cfg.ReceiptPollInterval,
	})

	a.Mutations = mutation.New(a.Wallet, a.Resolver, a.Reader, a.Writer, a.Tracker, a.UserTasks)

	log.Debugf("connected to %s (chain %d)", cfg.RPCURL, cfg.ChainID)

	return a, nil
}

// Close releases connections held by app.
func (a *App) Close() {
	if err := a.Resolver.Close(); err != nil {
		log.Debugf("failed to close address cache: %s", err)
	}
	a.RPC.Close()
}

// Account returns address given by flag value, falling back to connected
// wallet which is connected on demand.
func (a *App) Account(ctx context.Context, flagValue string) (ethcommon.Address, error) {
	if flagValue != "" {
		if !ethcommon.IsHexAddress(flagValue) {
			return ethcommon.Address{}, fmt.Errorf("invalid address %q", flagValue)
		}
		return ethcommon.HexToAddress(flagValue), nil
	}

	if err := a.Wallet.EnsureConnected(ctx); err != nil {
		return ethcommon.Address{}, err
	}

	return a.Wallet.Address(), nil
}
