package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SirZenith/taskmon/chain"
	tmcommon "github.com/SirZenith/taskmon/common"
	"github.com/SirZenith/taskmon/history"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
)

var (
	ErrReverted  = errors.New("transaction reverted")
	ErrNoReceipt = errors.New("transaction produced no hash")
)

// SendFunc broadcasts a transaction and returns its hash.
type SendFunc func(ctx context.Context) (common.Hash, error)

// Outcome is the final state of a submitted transaction.
type Outcome struct {
	ID      string // history key, transaction hash or synthetic id
	Hash    common.Hash
	Status  history.Status
	Receipt *types.Receipt
}

type Options struct {
	ReceiptTimeout time.Duration
	PollInterval   time.Duration
}

// Tracker follows a transaction from submission to its receipt, keeping
// notifier and history up to date along the way.
type Tracker struct {
	backend  chain.ReceiptBackend
	history  *history.History
	notifier Notifier
	options  Options
	now      func() time.Time
}

func New(backend chain.ReceiptBackend, h *history.History, notifier Notifier, options Options) *Tracker {
	if options.ReceiptTimeout <= 0 {
		options.ReceiptTimeout = 60 * time.Second
	}
	if options.PollInterval <= 0 {
		options.PollInterval = time.Second
	}

	return &Tracker{
		backend:  backend,
		history:  h,
		notifier: notifier,
		options:  options,
		now:      time.Now,
	}
}

// Submit runs send and waits for the resulting transaction to be mined.
// Returned error is non-nil whenever final status is failed.
func (t *Tracker) Submit(ctx context.Context, send SendFunc, meta map[string]any) (Outcome, error) {
	noticeID := uuid.NewString()
	t.notifier.Loading(noticeID, "Transaction Submitted")

	hash, err := send(ctx)
	if err != nil {
		msg := errorMessage(err)
		t.notifier.Error(noticeID, "Transaction Error: "+msg)

		outcome := Outcome{
			ID:     t.syntheticID(tmcommon.SyntheticErrorPrefix, 8),
			Status: history.StatusFailed,
		}
		t.record(outcome.ID, history.StatusFailed, withData(meta, "error", msg))

		return outcome, err
	}

	hasHash := hash != (common.Hash{})
	outcome := Outcome{Hash: hash}

	if hasHash {
		outcome.ID = hash.Hex()
		t.notifier.Loading(noticeID, "Transaction Submitted: "+tmcommon.ShortHash(outcome.ID))
	} else {
		outcome.ID = t.syntheticID(tmcommon.SyntheticTxPrefix, 5)
	}

	t.record(outcome.ID, history.StatusPending, meta)

	if !hasHash {
		outcome.Status = history.StatusFailed
		t.notifier.Error(noticeID, "Transaction Failed")
		t.record(outcome.ID, history.StatusFailed, meta)
		return outcome, ErrNoReceipt
	}

	receipt, err := chain.WaitForReceipt(ctx, t.backend, hash, t.options.ReceiptTimeout, t.options.PollInterval)
	if err != nil {
		msg := errorMessage(err)
		t.notifier.Error(noticeID, "Transaction Confirmation Error: "+msg)

		outcome.Status = history.StatusFailed
		t.record(outcome.ID, history.StatusFailed, withData(meta, "error", msg))

		return outcome, err
	}

	outcome.Receipt = receipt
	short := tmcommon.ShortHash(outcome.ID)

	if chain.Succeeded(receipt) {
		outcome.Status = history.StatusConfirmed
		t.notifier.Success(noticeID, "Transaction Confirmed: "+short)
		t.record(outcome.ID, history.StatusConfirmed, meta)
		return outcome, nil
	}

	outcome.Status = history.StatusFailed
	t.notifier.Error(noticeID, "Transaction Failed: "+short)
	t.record(outcome.ID, history.StatusFailed, meta)

	return outcome, errors.Wrapf(ErrReverted, "transaction %s", outcome.ID)
}

func (t *Tracker) record(id string, status history.Status, data map[string]any) {
	if t.history == nil {
		return
	}

	t.history.Add(history.Transaction{
		Hash:      id,
		Status:    status,
		Timestamp: t.now().UnixMilli(),
		Data:      data,
	})
}

// syntheticID makes `<prefix><unix ms>-<random>` for entries without a
// transaction hash.
func (t *Tracker) syntheticID(prefix string, randomLen int) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d-%s", prefix, t.now().UnixMilli(), random[:randomLen])
}

func withData(meta map[string]any, key string, value any) map[string]any {
	data := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		data[k] = v
	}
	data[key] = value
	return data
}

func errorMessage(err error) string {
	if err == nil {
		return "Unknown error"
	}

	msg := err.Error()
	if msg == "" {
		return "Unknown error"
	}

	return msg
}
