// Package mutation implements every state changing operation against
// shMONAD and TaskManager contracts. Each write goes through transaction
// tracker so that its progress is reported and recorded in history.
package mutation

import (
	"context"
	"math/big"
	"strconv"

	"github.com/SirZenith/taskmon/chain"
	"github.com/SirZenith/taskmon/database/data_model"
	"github.com/SirZenith/taskmon/tracker"
	"github.com/SirZenith/taskmon/usertask"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// Wallet is the signing account operations act for.
type Wallet interface {
	chain.Signer
	EnsureConnected(ctx context.Context) error
}

// TaskRecorder stores scheduled task ids for later lookup by owner.
type TaskRecorder interface {
	SaveUserTask(ctx context.Context, params usertask.SaveParams) ([]data_model.UserTask, error)
}

type Service struct {
	wallet   Wallet
	resolver *chain.Resolver
	reader   *chain.Reader
	writer   *chain.Writer
	tracker  *tracker.Tracker
	recorder TaskRecorder
}

// New creates a service, recorder may be nil.
func New(wallet Wallet, resolver *chain.Resolver, reader *chain.Reader, writer *chain.Writer, tracker *tracker.Tracker, recorder TaskRecorder) *Service {
	return &Service{
		wallet:   wallet,
		resolver: resolver,
		reader:   reader,
		writer:   writer,
		tracker:  tracker,
		recorder: recorder,
	}
}

// Deposit deposits amount of MON for receiver, connected account when
// receiver is zero.
func (s *Service) Deposit(ctx context.Context, amount *big.Int, receiver common.Address) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	receiver = s.orSelf(receiver)
	req, err := s.shMonadCall(ctx, "deposit", amount, amount, receiver)
	if err != nil {
		return tracker.Outcome{}, err
	}

	return s.submit(ctx, req, true, map[string]any{
		"method":   "deposit",
		"amount":   amount.String(),
		"receiver": receiver.Hex(),
	})
}

// Stake deposits amount of MON for connected account.
func (s *Service) Stake(ctx context.Context, amount *big.Int, gasLimit uint64) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	self := s.wallet.Address()
	req, err := s.shMonadCall(ctx, "deposit", amount, amount, self)
	if err != nil {
		return tracker.Outcome{}, err
	}
	req.GasLimit = gasLimit

	return s.submit(ctx, req, true, map[string]any{
		"method": "stake",
		"amount": amount.String(),
	})
}

// Unstake withdraws amount of MON back to connected account.
func (s *Service) Unstake(ctx context.Context, amount *big.Int, gasLimit uint64) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	self := s.wallet.Address()
	req, err := s.shMonadCall(ctx, "withdraw", nil, amount, self, self)
	if err != nil {
		return tracker.Outcome{}, err
	}
	req.GasLimit = gasLimit

	return s.submit(ctx, req, true, map[string]any{
		"method": "unstake",
		"amount": amount.String(),
	})
}

// Bond deposits amount and bonds all resulting shares under policy. Nil
// policyID selects current policy of TaskManager.
func (s *Service) Bond(ctx context.Context, policyID *uint64, amount *big.Int) (tracker.Outcome, error) {
	return s.depositAndBond(ctx, "bond", policyID, amount)
}

// DepositAndBond is Bond recorded under its contract method name.
func (s *Service) DepositAndBond(ctx context.Context, policyID *uint64, amount *big.Int) (tracker.Outcome, error) {
	return s.depositAndBond(ctx, "depositAndBond", policyID, amount)
}

func (s *Service) depositAndBond(ctx context.Context, method string, policyID *uint64, amount *big.Int) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	policy := s.policy(ctx, policyID)
	req, err := s.shMonadCall(ctx, "depositAndBond", amount, policy, s.wallet.Address(), math.MaxBig256)
	if err != nil {
		return tracker.Outcome{}, err
	}

	return s.submit(ctx, req, true, map[string]any{
		"method":   method,
		"policyId": strconv.FormatUint(policy, 10),
		"amount":   amount.String(),
	})
}

// Unbond starts unbonding amount of shares from policy.
func (s *Service) Unbond(ctx context.Context, policyID *uint64, amount *big.Int) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	policy := s.policy(ctx, policyID)
	req, err := s.shMonadCall(ctx, "unbond", nil, policy, amount, new(big.Int))
	if err != nil {
		return tracker.Outcome{}, err
	}

	return s.submit(ctx, req, true, map[string]any{
		"method":   "unbond",
		"policyId": strconv.FormatUint(policy, 10),
		"amount":   amount.String(),
	})
}

// Claim claims amount of unbonded shares from policy.
func (s *Service) Claim(ctx context.Context, policyID *uint64, amount *big.Int, gasLimit uint64) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	policy := s.policy(ctx, policyID)
	req, err := s.shMonadCall(ctx, "claim", nil, policy, amount)
	if err != nil {
		return tracker.Outcome{}, err
	}
	req.GasLimit = gasLimit

	return s.submit(ctx, req, true, map[string]any{
		"method":   "claim",
		"policyId": strconv.FormatUint(policy, 10),
		"amount":   amount.String(),
	})
}

// Redeem burns amount of shares, sending MON to receiver or to connected
// account when receiver is zero.
func (s *Service) Redeem(ctx context.Context, amount *big.Int, receiver common.Address, gasLimit uint64) (tracker.Outcome, error) {
	if err := s.prepare(ctx, amount); err != nil {
		return tracker.Outcome{}, err
	}

	meta := map[string]any{
		"method": "redeem",
		"amount": amount.String(),
	}
	if receiver != (common.Address{}) {
		meta["receiver"] = receiver.Hex()
	}

	self := s.wallet.Address()
	req, err := s.shMonadCall(ctx, "redeem", nil, amount, s.orSelf(receiver), self)
	if err != nil {
		return tracker.Outcome{}, err
	}
	req.GasLimit = gasLimit

	return s.submit(ctx, req, true, meta)
}

// ScheduleParams describes a task to be run at target block.
type ScheduleParams struct {
	Implementation common.Address
	TaskGasLimit   uint64
	TargetBlock    uint64
	MaxPayment     *big.Int
	TaskData       []byte
}

// ScheduleTask schedules a task. Once confirmed, task ids found in receipt
// are recorded through task recorder.
func (s *Service) ScheduleTask(ctx context.Context, params ScheduleParams) (tracker.Outcome, []chain.ScheduledTask, error) {
	if err := s.wallet.EnsureConnected(ctx); err != nil {
		return tracker.Outcome{}, nil, err
	}

	if params.TaskGasLimit == 0 {
		return tracker.Outcome{}, nil, errors.New("task gas limit must be positive")
	}

	maxPayment := params.MaxPayment
	if maxPayment == nil {
		maxPayment = new(big.Int)
	}

	taskManager, err := s.resolver.TaskManager(ctx)
	if err != nil {
		return tracker.Outcome{}, nil, err
	}

	req := chain.TaskManagerCall(taskManager, "scheduleTask", nil,
		params.Implementation,
		new(big.Int).SetUint64(params.TaskGasLimit),
		params.TargetBlock,
		maxPayment,
		params.TaskData,
	)

	outcome, err := s.submit(ctx, req, false, map[string]any{
		"method":         "scheduleTask",
		"implementation": params.Implementation.Hex(),
		"targetBlock":    strconv.FormatUint(params.TargetBlock, 10),
		"maxPayment":     maxPayment.String(),
	})
	if err != nil {
		return outcome, nil, err
	}

	tasks := chain.ParseTaskScheduled(outcome.Receipt, taskManager)
	if len(tasks) == 0 {
		log.Warnf("no TaskScheduled event found in %s", outcome.ID)
	}

	s.recordTasks(ctx, tasks)

	return outcome, tasks, nil
}

// ExecuteTasks runs due tasks, sending fees to payout or to connected
// account when payout is zero.
func (s *Service) ExecuteTasks(ctx context.Context, payout common.Address, maxTasks *big.Int) (tracker.Outcome, error) {
	if err := s.wallet.EnsureConnected(ctx); err != nil {
		return tracker.Outcome{}, err
	}

	if maxTasks == nil {
		maxTasks = new(big.Int)
	}

	taskManager, err := s.resolver.TaskManager(ctx)
	if err != nil {
		return tracker.Outcome{}, err
	}

	payout = s.orSelf(payout)
	req := chain.TaskManagerCall(taskManager, "executeTasks", nil, payout, maxTasks)

	return s.submit(ctx, req, false, map[string]any{
		"method":        "executeTasks",
		"payoutAddress": payout.Hex(),
		"maxTasks":      maxTasks.String(),
	})
}

func (s *Service) recordTasks(ctx context.Context, tasks []chain.ScheduledTask) {
	if s.recorder == nil {
		return
	}

	owner := s.wallet.Address().Hex()
	for _, task := range tasks {
		params := usertask.SaveParams{
			UserAddress: owner,
			TaskID:      task.TaskID.Hex(),
			BlockNumber: int64(task.BlockNumber),
		}

		if _, err := s.recorder.SaveUserTask(ctx, params); err != nil {
			log.Warnf("failed to record task %s: %s", params.TaskID, err)
		} else {
			log.Infof("recorded task %s at block %d", params.TaskID, params.BlockNumber)
		}
	}
}

// prepare connects wallet and checks amount.
func (s *Service) prepare(ctx context.Context, amount *big.Int) error {
	if err := s.wallet.EnsureConnected(ctx); err != nil {
		return err
	}

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	return nil
}

func (s *Service) policy(ctx context.Context, policyID *uint64) uint64 {
	if policyID != nil {
		return *policyID
	}
	return s.reader.CurrentPolicyID(ctx)
}

func (s *Service) orSelf(addr common.Address) common.Address {
	if addr == (common.Address{}) {
		return s.wallet.Address()
	}
	return addr
}

func (s *Service) shMonadCall(ctx context.Context, method string, value *big.Int, args ...any) (chain.CallRequest, error) {
	shMonad, err := s.resolver.ShMonad(ctx)
	if err != nil {
		return chain.CallRequest{}, err
	}
	return chain.ShMonadCall(shMonad, method, value, args...), nil
}

func (s *Service) submit(ctx context.Context, req chain.CallRequest, simulate bool, meta map[string]any) (tracker.Outcome, error) {
	send := func(ctx context.Context) (common.Hash, error) {
		if simulate {
			return s.writer.Send(ctx, s.wallet, req)
		}
		return s.writer.SendUnsimulated(ctx, s.wallet, req)
	}

	return s.tracker.Submit(ctx, send, meta)
}
