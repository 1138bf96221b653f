package app

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/tracker"
	"github.com/charmbracelet/log"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v3"
)

// AmountArg is the positional amount argument shared by write commands.
func AmountArg(dst *string) cli.Argument {
	return &cli.StringArg{
		Name:        "amount",
		UsageText:   "<amount>",
		Destination: dst,
		Min:         1,
		Max:         1,
	}
}

// GasFlag is the optional gas limit override of write commands.
func GasFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "gas",
		Usage: "gas limit, a number or one of small, medium, large; estimated when omitted",
	}
}

// ParseAmount parses a positive MON amount, "wei" suffix selects raw wei.
func ParseAmount(value string) (*big.Int, error) {
	amount, err := common.ParseAmount(value)
	if err != nil {
		return nil, err
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %q", value)
	}
	return amount, nil
}

// ParseGas parses gas limit given as number or category name. Empty input
// gives 0 which means estimate.
func ParseGas(value string) (uint64, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return 0, nil
	}

	if gas, ok := chain.GasCategory(value); ok {
		return gas, nil
	}

	gas, err := strconv.ParseUint(strings.ReplaceAll(value, "_", ""), 10, 64)
	if err != nil || gas == 0 {
		return 0, fmt.Errorf("invalid gas limit %q", value)
	}

	return gas, nil
}

// ParseAddress parses optional address, empty input gives zero address.
func ParseAddress(value string) (ethcommon.Address, error) {
	if value == "" {
		return ethcommon.Address{}, nil
	}
	if !ethcommon.IsHexAddress(value) {
		return ethcommon.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return ethcommon.HexToAddress(value), nil
}

// ParsePolicy parses optional policy id flag, nil means current policy.
func ParsePolicy(cmd *cli.Command) *uint64 {
	if !cmd.IsSet("policy") {
		return nil
	}
	policy := uint64(cmd.Int("policy"))
	return &policy
}

// ReportOutcome logs final state of a submitted transaction.
func (a *App) ReportOutcome(outcome tracker.Outcome) {
	if outcome.ID == "" {
		return
	}

	log.Info(Field("status", RenderStatus(string(outcome.Status))))
	log.Info(Field("id", outcome.ID))

	if url := common.ExplorerTxURL(a.Config.ExplorerURL, outcome.ID); url != "" {
		log.Info(Field("explorer", LinkStyle.Render(url)))
	}

	if outcome.Receipt != nil {
		log.Info(Field("block", outcome.Receipt.BlockNumber))
		log.Info(Field("gas used", outcome.Receipt.GasUsed))
	}
}
