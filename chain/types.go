package chain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// BlockTime is the average block interval used for wait estimates.
	BlockTime = 2 * time.Second

	// FallbackPolicyID is used when TaskManager.POLICY_ID cannot be read.
	FallbackPolicyID uint64 = 1
)

// Gas limits offered when scheduling a task.
const (
	GasSmall  uint64 = 100_000
	GasMedium uint64 = 250_000
	GasLarge  uint64 = 750_000
)

// GasCategory maps a category name to its gas limit.
func GasCategory(name string) (uint64, bool) {
	switch name {
	case "small":
		return GasSmall, true
	case "medium":
		return GasMedium, true
	case "large":
		return GasLarge, true
	default:
		return 0, false
	}
}

// Contracts holds addresses resolved from AddressHub.
type Contracts struct {
	TaskManager common.Address
	ShMonad     common.Address
}

// TaskState is the execution state reported by TaskManager.getTaskStatus.
type TaskState uint8

const (
	TaskPending TaskState = iota
	TaskExecuted
	TaskFailed
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskExecuted:
		return "executed"
	case TaskFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

type TaskStatus struct {
	TaskID         common.Hash
	State          TaskState
	ScheduledBlock uint64
	TargetBlock    uint64
	Owner          common.Address
	FeeEstimate    *big.Int
}

// UnbondingStatus describes an account's pending unbond under one policy.
type UnbondingStatus struct {
	Amount        *big.Int
	CompleteBlock uint64
	CurrentBlock  uint64
}

// IsComplete reports whether unbonded amount can be claimed.
func (s UnbondingStatus) IsComplete() bool {
	return s.CompleteBlock != 0 && s.CurrentBlock >= s.CompleteBlock
}

// BlocksRemaining returns number of blocks left before unbonding completes.
func (s UnbondingStatus) BlocksRemaining() uint64 {
	if s.CompleteBlock == 0 || s.CurrentBlock >= s.CompleteBlock {
		return 0
	}
	return s.CompleteBlock - s.CurrentBlock
}

// EstimatedWait converts remaining blocks to wall time.
func (s UnbondingStatus) EstimatedWait() time.Duration {
	return time.Duration(s.BlocksRemaining()) * BlockTime
}

// HasPending reports whether there is anything unbonding at all.
func (s UnbondingStatus) HasPending() bool {
	return s.Amount != nil && s.Amount.Sign() > 0
}
