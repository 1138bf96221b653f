package docs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	var contract string

	return &cli.Command{
		Name:  "docs",
		Usage: "show contract addresses and function reference",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "skip resolving contract addresses",
			},
		},
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:        "contract",
				UsageText:   "[contract]",
				Destination: &contract,
				Max:         1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			names := chain.ContractNames()
			if contract != "" {
				if _, ok := chain.ContractABI(contract); !ok {
					return fmt.Errorf("unknown contract %q, expecting one of %s", contract, strings.Join(names, ", "))
				}
				names = []string{contract}
			}

			if !cmd.Bool("offline") {
				if err := printAddresses(ctx, cmd); err != nil {
					log.Warnf("failed to resolve contract addresses: %s", err)
				}
			}

			for _, name := range names {
				contractABI, _ := chain.ContractABI(name)
				fmt.Println(RenderContract(name, contractABI))
			}

			return nil
		},
	}
}

func printAddresses(ctx context.Context, cmd *cli.Command) error {
	a, err := app.New(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	contracts, err := a.Resolver.Contracts(ctx)
	if err != nil {
		return err
	}

	explorer := a.Config.ExplorerURL
	t := app.NewTable("Contract", "Address", "Explorer").
		Row("AddressHub", a.Resolver.Hub().Hex(), common.ExplorerAddressURL(explorer, a.Resolver.Hub().Hex())).
		Row("TaskManager", contracts.TaskManager.Hex(), common.ExplorerAddressURL(explorer, contracts.TaskManager.Hex())).
		Row("shMONAD", contracts.ShMonad.Hex(), common.ExplorerAddressURL(explorer, contracts.ShMonad.Hex()))

	fmt.Println(t.String())

	return nil
}

// RenderContract lists functions and events of a contract sorted by name.
func RenderContract(name string, contractABI abi.ABI) string {
	lines := []string{app.TitleStyle.Render(name)}

	methods := make([]abi.Method, 0, len(contractABI.Methods))
	for _, method := range contractABI.Methods {
		methods = append(methods, method)
	}
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].Sig < methods[j].Sig
	})

	for _, method := range methods {
		line := "  " + method.Sig
		if len(method.Outputs) > 0 {
			line += " returns (" + argTypes(method.Outputs) + ")"
		}

		if method.IsConstant() {
			line += " " + app.MutedStyle.Render(method.StateMutability)
		} else if method.IsPayable() {
			line += " " + app.LabelStyle.Render("payable")
		}

		lines = append(lines, line)
	}

	events := make([]string, 0, len(contractABI.Events))
	for _, event := range contractABI.Events {
		events = append(events, "  event "+event.Sig)
	}
	sort.Strings(events)

	lines = append(lines, events...)

	return strings.Join(lines, "\n")
}

func argTypes(args abi.Arguments) string {
	types := make([]string, len(args))
	for i, arg := range args {
		types[i] = arg.Type.String()
	}
	return strings.Join(types, ",")
}
