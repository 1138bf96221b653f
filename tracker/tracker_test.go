package tracker

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SirZenith/taskmon/history"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notice struct {
	kind string
	id   string
	msg  string
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) add(kind, id, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind, id, msg})
}

func (n *recordingNotifier) Loading(id, msg string) { n.add("loading", id, msg) }
func (n *recordingNotifier) Success(id, msg string) { n.add("success", id, msg) }
func (n *recordingNotifier) Error(id, msg string)   { n.add("error", id, msg) }

func (n *recordingNotifier) last() notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notices[len(n.notices)-1]
}

type receiptBackend struct {
	receipts map[common.Hash]*types.Receipt
}

func (b *receiptBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if receipt, ok := b.receipts[hash]; ok {
		return receipt, nil
	}
	return nil, ethereum.NotFound
}

const txHash = "0x1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"

func newTestTracker(receipts ...*types.Receipt) (*Tracker, *recordingNotifier, *history.History) {
	backend := &receiptBackend{receipts: map[common.Hash]*types.Receipt{}}
	for _, r := range receipts {
		backend.receipts[r.TxHash] = r
	}

	notifier := &recordingNotifier{}
	h := history.New(history.NewMemoryStorage())
	tracker := New(backend, h, notifier, Options{ReceiptTimeout: 50 * time.Millisecond, PollInterval: 5 * time.Millisecond})

	return tracker, notifier, h
}

func sendHash(hash string) SendFunc {
	return func(ctx context.Context) (common.Hash, error) {
		return common.HexToHash(hash), nil
	}
}

func TestSubmitConfirmed(t *testing.T) {
	hash := common.HexToHash(txHash)
	tracker, notifier, h := newTestTracker(&types.Receipt{TxHash: hash, Status: types.ReceiptStatusSuccessful})

	outcome, err := tracker.Submit(context.Background(), sendHash(txHash), map[string]any{"method": "deposit", "amount": "1.5"})
	require.NoError(t, err)
	assert.Equal(t, history.StatusConfirmed, outcome.Status)
	assert.Equal(t, txHash, outcome.ID)
	require.NotNil(t, outcome.Receipt)

	require.Len(t, notifier.notices, 3)
	assert.Equal(t, notice{"loading", notifier.notices[0].id, "Transaction Submitted"}, notifier.notices[0])
	assert.Equal(t, "Transaction Submitted: 0x1234...cdef", notifier.notices[1].msg)
	assert.Equal(t, "success", notifier.last().kind)
	assert.Equal(t, "Transaction Confirmed: 0x1234...cdef", notifier.last().msg)

	// every notice belongs to the same notification
	assert.Equal(t, notifier.notices[0].id, notifier.last().id)

	entries := h.List()
	require.Len(t, entries, 1)
	assert.Equal(t, txHash, entries[0].Hash)
	assert.Equal(t, history.StatusConfirmed, entries[0].Status)
	assert.Equal(t, "deposit", entries[0].Method())
}

func TestSubmitReverted(t *testing.T) {
	hash := common.HexToHash(txHash)
	tracker, notifier, h := newTestTracker(&types.Receipt{TxHash: hash, Status: types.ReceiptStatusFailed})

	outcome, err := tracker.Submit(context.Background(), sendHash(txHash), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReverted))
	assert.Equal(t, history.StatusFailed, outcome.Status)

	assert.Equal(t, notice{"error", notifier.last().id, "Transaction Failed: 0x1234...cdef"}, notifier.last())
	assert.Equal(t, history.StatusFailed, h.List()[0].Status)
}

func TestSubmitReceiptTimeout(t *testing.T) {
	tracker, notifier, h := newTestTracker()

	outcome, err := tracker.Submit(context.Background(), sendHash(txHash), map[string]any{"method": "claim"})
	require.Error(t, err)
	assert.Equal(t, history.StatusFailed, outcome.Status)

	last := notifier.last()
	assert.Equal(t, "error", last.kind)
	assert.True(t, strings.HasPrefix(last.msg, "Transaction Confirmation Error: "))

	entries := h.List()
	require.Len(t, entries, 1)
	assert.Equal(t, txHash, entries[0].Hash)
	assert.Equal(t, history.StatusFailed, entries[0].Status)
	assert.Equal(t, "claim", entries[0].Method())
	assert.NotEmpty(t, entries[0].Data["error"])
}

func TestSubmitSendError(t *testing.T) {
	tracker, notifier, h := newTestTracker()

	send := func(ctx context.Context) (common.Hash, error) {
		return common.Hash{}, errors.New("user rejected")
	}

	outcome, err := tracker.Submit(context.Background(), send, map[string]any{"method": "unbond"})
	require.Error(t, err)
	assert.Equal(t, history.StatusFailed, outcome.Status)
	assert.Regexp(t, `^error-\d+-[0-9a-f]{8}$`, outcome.ID)

	assert.Equal(t, "Transaction Error: user rejected", notifier.last().msg)
	require.Len(t, notifier.notices, 2)

	entries := h.List()
	require.Len(t, entries, 1)
	assert.Equal(t, outcome.ID, entries[0].Hash)
	assert.Equal(t, "user rejected", entries[0].Data["error"])
	assert.Equal(t, "unbond", entries[0].Method())
}

func TestSubmitWithoutHash(t *testing.T) {
	tracker, notifier, h := newTestTracker()

	send := func(ctx context.Context) (common.Hash, error) {
		return common.Hash{}, nil
	}

	outcome, err := tracker.Submit(context.Background(), send, nil)
	require.ErrorIs(t, err, ErrNoReceipt)
	assert.Regexp(t, `^tx-\d+-[0-9a-f]{5}$`, outcome.ID)
	assert.Equal(t, "Transaction Failed", notifier.last().msg)

	entries := h.List()
	require.Len(t, entries, 1)
	assert.Equal(t, history.StatusFailed, entries[0].Status)
}

func TestSubmitWithoutHistory(t *testing.T) {
	hash := common.HexToHash(txHash)
	backend := &receiptBackend{receipts: map[common.Hash]*types.Receipt{
		hash: {TxHash: hash, Status: types.ReceiptStatusSuccessful},
	}}

	tracker := New(backend, nil, NewQuietNotifier(), Options{PollInterval: time.Millisecond})
	outcome, err := tracker.Submit(context.Background(), sendHash(txHash), nil)
	require.NoError(t, err)
	assert.Equal(t, history.StatusConfirmed, outcome.Status)
}
