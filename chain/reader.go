package chain

import (
	"context"
	"math/big"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Reader performs view calls against TaskManager and shMONAD.
type Reader struct {
	backend  Backend
	resolver *Resolver
}

func NewReader(backend Backend, resolver *Resolver) *Reader {
	return &Reader{backend: backend, resolver: resolver}
}

// PolicyID reads TaskManager.POLICY_ID. Successful reads are cached along
// with contract addresses.
func (r *Reader) PolicyID(ctx context.Context) (uint64, error) {
	value, err := r.resolver.cached(keyPolicyID, func() (any, error) {
		taskManager, err := r.resolver.TaskManager(ctx)
		if err != nil {
			return nil, err
		}

		results, err := call(ctx, r.backend, &taskManagerABI, taskManager, "POLICY_ID")
		if err != nil {
			return nil, err
		}

		return asUint64(results, "POLICY_ID")
	})
	if err != nil {
		return 0, err
	}

	return value.(uint64), nil
}

// CurrentPolicyID returns TaskManager's policy ID, falling back to
// FallbackPolicyID when it cannot be read.
func (r *Reader) CurrentPolicyID(ctx context.Context) uint64 {
	id, err := r.PolicyID(ctx)
	if err != nil {
		log.Warnf("failed to read policy ID, using %d: %s", FallbackPolicyID, err)
		return FallbackPolicyID
	}
	return id
}

// Balance returns shMONAD share balance of account.
func (r *Reader) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.shMonadUint(ctx, &shMonadABI, "balanceOf", account)
}

// BondedBalance returns account's bonded shMONAD across all policies.
func (r *Reader) BondedBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	return r.shMonadUint(ctx, &shMonadABI, "balanceOfBonded", account)
}

// BondedBalanceByPolicy returns account's bonded shMONAD under one policy.
func (r *Reader) BondedBalanceByPolicy(ctx context.Context, policyID uint64, account common.Address) (*big.Int, error) {
	return r.shMonadUint(ctx, &shMonadPolicyBondedABI, "balanceOfBonded", policyID, account)
}

func (r *Reader) UnbondingBalance(ctx context.Context, policyID uint64, account common.Address) (*big.Int, error) {
	return r.shMonadUint(ctx, &shMonadABI, "balanceOfUnbonding", policyID, account)
}

// UnbondingCompleteBlock returns block number at which account's unbonding
// under policy finishes, zero when nothing is unbonding.
func (r *Reader) UnbondingCompleteBlock(ctx context.Context, policyID uint64, account common.Address) (uint64, error) {
	value, err := r.shMonadUint(ctx, &shMonadABI, "unbondingCompleteBlock", policyID, account)
	if err != nil {
		return 0, err
	}

	if !value.IsUint64() {
		return 0, errors.Newf("unbonding complete block %s out of range", value)
	}

	return value.Uint64(), nil
}

// UnbondingStatus gathers unbonding amount, completion block and current
// block number in one value.
func (r *Reader) UnbondingStatus(ctx context.Context, policyID uint64, account common.Address) (UnbondingStatus, error) {
	status := UnbondingStatus{}

	amount, err := r.UnbondingBalance(ctx, policyID, account)
	if err != nil {
		return status, err
	}
	status.Amount = amount

	status.CompleteBlock, err = r.UnbondingCompleteBlock(ctx, policyID, account)
	if err != nil {
		return status, err
	}

	status.CurrentBlock, err = r.BlockNumber(ctx)
	if err != nil {
		return status, err
	}

	return status, nil
}

// NativeBalance returns MON balance of account in wei.
func (r *Reader) NativeBalance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := r.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading native balance of %s", account.Hex())
	}
	return balance, nil
}

func (r *Reader) BlockNumber(ctx context.Context) (uint64, error) {
	number, err := r.backend.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "reading block number")
	}
	return number, nil
}

// TaskStatus reads execution state of a scheduled task.
func (r *Reader) TaskStatus(ctx context.Context, taskID common.Hash) (TaskStatus, error) {
	taskManager, err := r.resolver.TaskManager(ctx)
	if err != nil {
		return TaskStatus{}, err
	}

	results, err := call(ctx, r.backend, &taskManagerABI, taskManager, "getTaskStatus", taskID)
	if err != nil {
		return TaskStatus{}, err
	}

	if len(results) != 5 {
		return TaskStatus{}, errors.Newf("getTaskStatus returned %d values", len(results))
	}

	status := TaskStatus{TaskID: taskID}
	var ok [5]bool

	var state uint8
	state, ok[0] = results[0].(uint8)
	status.State = TaskState(state)
	status.ScheduledBlock, ok[1] = results[1].(uint64)
	status.TargetBlock, ok[2] = results[2].(uint64)
	status.Owner, ok[3] = results[3].(common.Address)
	status.FeeEstimate, ok[4] = results[4].(*big.Int)

	for i, good := range ok {
		if !good {
			return TaskStatus{}, errors.Newf("unexpected type %T for getTaskStatus output %d", results[i], i)
		}
	}

	return status, nil
}

func (r *Reader) IsTaskExecuted(ctx context.Context, taskID common.Hash) (bool, error) {
	taskManager, err := r.resolver.TaskManager(ctx)
	if err != nil {
		return false, err
	}

	results, err := call(ctx, r.backend, &taskManagerABI, taskManager, "isTaskExecuted", taskID)
	if err != nil {
		return false, err
	}

	executed, ok := results[0].(bool)
	if !ok {
		return false, errors.Newf("unexpected type %T from isTaskExecuted", results[0])
	}

	return executed, nil
}

func (r *Reader) shMonadUint(ctx context.Context, contractABI *abi.ABI, method string, args ...any) (*big.Int, error) {
	shMonad, err := r.resolver.ShMonad(ctx)
	if err != nil {
		return nil, err
	}

	results, err := call(ctx, r.backend, contractABI, shMonad, method, args...)
	if err != nil {
		return nil, err
	}

	value, ok := results[0].(*big.Int)
	if !ok {
		return nil, errors.Newf("unexpected type %T from %s", results[0], method)
	}

	return value, nil
}

func asUint64(results []any, method string) (uint64, error) {
	value, ok := results[0].(uint64)
	if !ok {
		return 0, errors.Newf("unexpected type %T from %s", results[0], method)
	}
	return value, nil
}
