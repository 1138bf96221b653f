package chain

import (
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ScheduledTask is decoded from a TaskScheduled log.
type ScheduledTask struct {
	TaskID      common.Hash
	Owner       common.Address
	TargetBlock uint64
	BlockNumber uint64 // block the scheduling transaction landed in
}

// ParseTaskScheduled extracts TaskScheduled events emitted by taskManager
// from receipt. Malformed logs are skipped.
func ParseTaskScheduled(receipt *types.Receipt, taskManager common.Address) []ScheduledTask {
	if receipt == nil {
		return nil
	}

	event := taskManagerABI.Events["TaskScheduled"]
	tasks := []ScheduledTask{}

	for _, entry := range receipt.Logs {
		if entry == nil || entry.Address != taskManager {
			continue
		}
		if len(entry.Topics) != 3 || entry.Topics[0] != event.ID {
			continue
		}

		values, err := event.Inputs.NonIndexed().Unpack(entry.Data)
		if err != nil || len(values) != 1 {
			log.Debugf("skipping malformed TaskScheduled log in %s: %v", receipt.TxHash.Hex(), err)
			continue
		}

		target, _ := values[0].(uint64)

		blockNumber := entry.BlockNumber
		if blockNumber == 0 && receipt.BlockNumber != nil {
			blockNumber = receipt.BlockNumber.Uint64()
		}

		tasks = append(tasks, ScheduledTask{
			TaskID:      entry.Topics[1],
			Owner:       common.BytesToAddress(entry.Topics[2].Bytes()),
			TargetBlock: target,
			BlockNumber: blockNumber,
		})
	}

	return tasks
}

// TaskScheduledTopic returns topic hash of TaskScheduled event.
func TaskScheduledTopic() common.Hash {
	return taskManagerABI.Events["TaskScheduled"].ID
}

// PackTaskScheduledData encodes non-indexed fields of a TaskScheduled log.
func PackTaskScheduledData(targetBlock uint64) ([]byte, error) {
	return taskManagerABI.Events["TaskScheduled"].Inputs.NonIndexed().Pack(targetBlock)
}
