package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

var (
	testHub         = common.HexToAddress("0xC9f0cDE8316AbC5Efc8C3f5A6b571e815C021B51")
	testTaskManager = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testShMonad     = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

type callResponse struct {
	output []byte
	err    error
}

// fakeBackend answers contract calls by function selector.
type fakeBackend struct {
	mu sync.Mutex

	responses map[string]callResponse
	callCount map[string]int

	gasErr   error
	sent     []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	balances map[common.Address]*big.Int
	block    uint64
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		responses: map[string]callResponse{},
		callCount: map[string]int{},
		receipts:  map[common.Hash]*types.Receipt{},
		balances:  map[common.Address]*big.Int{},
	}
}

// newHubBackend returns a backend with AddressHub entries registered.
func newHubBackend(t *testing.T) *fakeBackend {
	b := newFakeBackend()
	b.respond(t, addressHubABI, "taskManager", testTaskManager)
	b.respond(t, addressHubABI, "shMonad", testShMonad)
	return b
}

func (b *fakeBackend) respond(t *testing.T, contractABI abi.ABI, method string, outputs ...any) {
	t.Helper()

	m, ok := contractABI.Methods[method]
	require.True(t, ok, "unknown method %s", method)

	packed, err := m.Outputs.Pack(outputs...)
	require.NoError(t, err)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[hex.EncodeToString(m.ID)] = callResponse{output: packed}
}

func (b *fakeBackend) fail(contractABI abi.ABI, method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[hex.EncodeToString(contractABI.Methods[method].ID)] = callResponse{err: err}
}

func (b *fakeBackend) calls(contractABI abi.ABI, method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callCount[hex.EncodeToString(contractABI.Methods[method].ID)]
}

func (b *fakeBackend) sentTransactions() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction{}, b.sent...)
}

func (b *fakeBackend) setReceipt(receipt *types.Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipts[receipt.TxHash] = receipt
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, errors.New("missing selector")
	}

	selector := hex.EncodeToString(call.Data[:4])

	b.mu.Lock()
	defer b.mu.Unlock()

	b.callCount[selector]++
	resp, ok := b.responses[selector]
	if !ok {
		// writes without registered response simulate fine
		return []byte{}, nil
	}

	return resp.output, resp.err
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	if b.gasErr != nil {
		return 0, b.gasErr
	}
	return 21_000 + uint64(len(call.Data))*16, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(50_000_000_000), nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	receipt, ok := b.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (b *fakeBackend) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if balance, ok := b.balances[account]; ok {
		return balance, nil
	}
	return new(big.Int), nil
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block, nil
}

type keySigner struct {
	key *ecdsa.PrivateKey
}

func newKeySigner(t *testing.T) *keySigner {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return &keySigner{key: key}
}

func (s *keySigner) Address() common.Address {
	return crypto.PubkeyToAddress(s.key.PublicKey)
}

func (s *keySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}
