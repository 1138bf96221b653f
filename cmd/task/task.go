package task

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/SirZenith/taskmon/internal/app"
	"github.com/SirZenith/taskmon/mutation"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v3"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "task",
		Usage: "schedule, execute and inspect TaskManager tasks",
		Commands: []*cli.Command{
			subCmdSchedule(),
			subCmdExecute(),
			subCmdStatus(),
			subCmdExecuted(),
			subCmdList(),
		},
	}
}

func subCmdSchedule() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "schedule a task to run at a future block",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "implementation",
				Aliases:  []string{"i"},
				Usage:    "address of task implementation contract",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "gas",
				Usage: "task gas limit, a number or one of small, medium, large",
				Value: "medium",
			},
			&cli.IntFlag{
				Name:  "target-block",
				Usage: "block number to run task at",
			},
			&cli.IntFlag{
				Name:  "delay",
				Usage: "number of blocks from now to run task at, used when target block is not given",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "max-payment",
				Usage: "maximum fee paid for execution, MON or amount suffixed with wei",
				Value: "0",
			},
			&cli.StringFlag{
				Name:  "data",
				Usage: "hex encoded calldata passed to implementation",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			params, err := parseScheduleFlags(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if params.TargetBlock == 0 {
				current, err := a.Reader.BlockNumber(ctx)
				if err != nil {
					return err
				}
				params.TargetBlock = current + uint64(cmd.Int("delay"))
			}

			log.Infof(
				"scheduling task %s at block %s with gas limit %s",
				params.Implementation.Hex(), humanize.Comma(int64(params.TargetBlock)), humanize.Comma(int64(params.TaskGasLimit)),
			)

			outcome, tasks, err := a.Mutations.ScheduleTask(ctx, params)
			a.ReportOutcome(outcome)
			if err != nil {
				return err
			}

			for _, t := range tasks {
				log.Info(app.Field("task id", t.TaskID.Hex()))
			}

			return nil
		},
	}
}

func parseScheduleFlags(cmd *cli.Command) (mutation.ScheduleParams, error) {
	params := mutation.ScheduleParams{}

	implementation := cmd.String("implementation")
	if !ethcommon.IsHexAddress(implementation) {
		return params, fmt.Errorf("invalid implementation address %q", implementation)
	}
	params.Implementation = ethcommon.HexToAddress(implementation)

	gas, err := app.ParseGas(cmd.String("gas"))
	if err != nil {
		return params, err
	}
	if gas == 0 {
		gas = chain.GasMedium
	}
	params.TaskGasLimit = gas

	target := cmd.Int("target-block")
	if target < 0 {
		return params, fmt.Errorf("invalid target block %d", target)
	}
	params.TargetBlock = uint64(target)

	if delay := cmd.Int("delay"); params.TargetBlock == 0 && delay <= 0 {
		return params, fmt.Errorf("delay must be positive, got %d", delay)
	}

	maxPayment, err := parseMaxPayment(cmd.String("max-payment"))
	if err != nil {
		return params, err
	}
	params.MaxPayment = maxPayment

	data, err := ParseTaskData(cmd.String("data"))
	if err != nil {
		return params, err
	}
	params.TaskData = data

	return params, nil
}

func parseMaxPayment(value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "0" {
		return new(big.Int), nil
	}
	return app.ParseAmount(value)
}

// ParseTaskData decodes hex calldata, 0x prefix is optional.
func ParseTaskData(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return []byte{}, nil
	}

	if !strings.HasPrefix(value, "0x") && !strings.HasPrefix(value, "0X") {
		value = "0x" + value
	}

	data, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("invalid task data: %s", err)
	}

	return data, nil
}

func subCmdExecute() *cli.Command {
	return &cli.Command{
		Name:  "execute",
		Usage: "execute due tasks and collect fees",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "payout",
				Usage: "address receiving execution fees, connected account when omitted",
			},
			&cli.IntFlag{
				Name:  "max-tasks",
				Usage: "maximum number of tasks to execute, 0 for no limit",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			payout, err := app.ParseAddress(cmd.String("payout"))
			if err != nil {
				return err
			}

			maxTasks := cmd.Int("max-tasks")
			if maxTasks < 0 {
				return fmt.Errorf("invalid max task count %d", maxTasks)
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			outcome, err := a.Mutations.ExecuteTasks(ctx, payout, big.NewInt(maxTasks))
			a.ReportOutcome(outcome)
			return err
		},
	}
}

func taskIDArg(dst *string) cli.Argument {
	return &cli.StringArg{
		Name:        "task-id",
		UsageText:   "<task-id>",
		Destination: dst,
		Min:         1,
		Max:         1,
	}
}

// ParseTaskID parses 32 byte task id given in hex.
func ParseTaskID(value string) (ethcommon.Hash, error) {
	data, err := ParseTaskData(value)
	if err != nil || len(data) != ethcommon.HashLength {
		return ethcommon.Hash{}, fmt.Errorf("invalid task id %q", value)
	}
	return ethcommon.BytesToHash(data), nil
}

func subCmdStatus() *cli.Command {
	var taskIDStr string

	return &cli.Command{
		Name:      "status",
		Usage:     "show execution state of a task",
		Arguments: []cli.Argument{taskIDArg(&taskIDStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			taskID, err := ParseTaskID(taskIDStr)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			status, err := a.Reader.TaskStatus(ctx, taskID)
			if err != nil {
				return err
			}

			fmt.Println(RenderTaskStatus(status))

			return nil
		},
	}
}

// RenderTaskStatus formats task status as labelled lines.
func RenderTaskStatus(status chain.TaskStatus) string {
	fee := "unknown"
	if status.FeeEstimate != nil {
		fee = app.Amount(status.FeeEstimate, "MON")
	}

	return strings.Join([]string{
		app.Field("task", status.TaskID.Hex()),
		app.Field("state", app.RenderStatus(status.State.String())),
		app.Field("owner", status.Owner.Hex()),
		app.Field("scheduled at", status.ScheduledBlock),
		app.Field("target block", status.TargetBlock),
		app.Field("fee estimate", fee),
	}, "\n")
}

func subCmdExecuted() *cli.Command {
	var taskIDStr string

	return &cli.Command{
		Name:      "executed",
		Usage:     "check whether a task has been executed",
		Arguments: []cli.Argument{taskIDArg(&taskIDStr)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			taskID, err := ParseTaskID(taskIDStr)
			if err != nil {
				return err
			}

			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			executed, err := a.Reader.IsTaskExecuted(ctx, taskID)
			if err != nil {
				return err
			}

			fmt.Println(executed)

			return nil
		},
	}
}

func subCmdList() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list tasks recorded for an account in user task backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "task owner, connected wallet when omitted",
			},
			&cli.BoolFlag{
				Name:  "status",
				Usage: "also query on-chain state of each task",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := app.New(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			owner, err := a.Account(ctx, cmd.String("address"))
			if err != nil {
				return err
			}

			tasks, err := a.UserTasks.GetTasksByOwner(ctx, owner.Hex())
			if err != nil {
				return err
			}

			if len(tasks) == 0 {
				log.Infof("no task recorded for %s", owner.Hex())
				return nil
			}

			var states map[string]string
			if cmd.Bool("status") {
				states = queryStates(ctx, a.Reader, tasks)
			}

			fmt.Println(RenderTaskList(tasks, states))

			return nil
		},
	}
}

func queryStates(ctx context.Context, reader *chain.Reader, tasks []data_model.UserTask) map[string]string {
	states := map[string]string{}

	for _, t := range tasks {
		taskID, err := ParseTaskID(t.TaskID)
		if err != nil {
			log.Warnf("skipping malformed task id %q", t.TaskID)
			continue
		}

		status, err := reader.TaskStatus(ctx, taskID)
		if err != nil {
			log.Warnf("failed to read status of task %s: %s", t.TaskID, err)
			continue
		}

		states[t.TaskID] = status.State.String()
	}

	return states
}

// RenderTaskList formats recorded tasks as a table, states may be nil.
func RenderTaskList(tasks []data_model.UserTask, states map[string]string) string {
	headers := []string{"Task", "Block", "Recorded"}
	if states != nil {
		headers = append(headers, "State")
	}

	t := app.NewTable(headers...)
	for _, task := range tasks {
		row := []string{
			task.TaskID,
			humanize.Comma(task.BlockNumber),
			humanize.Time(task.CreatedAt),
		}

		if states != nil {
			state, ok := states[task.TaskID]
			if !ok {
				state = "unknown"
			}
			row = append(row, app.RenderStatus(state))
		}

		t.Row(row...)
	}

	return t.String()
}
