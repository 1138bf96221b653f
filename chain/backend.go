package chain

import (
	"context"
	"math/big"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Backend is the subset of JSON-RPC methods used by this package.
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractCaller

	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Signer signs transactions on behalf of one account.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Dial connects to JSON-RPC endpoint using given HTTP client for transport.
func Dial(ctx context.Context, url string, httpClient *http.Client) (*ethclient.Client, error) {
	options := []rpc.ClientOption{}
	if httpClient != nil {
		options = append(options, rpc.WithHTTPClient(httpClient))
	}

	rpcClient, err := rpc.DialOptions(ctx, url, options...)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", url)
	}

	return ethclient.NewClient(rpcClient), nil
}

// call invokes a view function and returns its unpacked outputs.
func call(ctx context.Context, backend Backend, contractABI *abi.ABI, address common.Address, method string, args ...any) ([]any, error) {
	contract := bind.NewBoundContract(address, *contractABI, backend, nil, nil)

	results := []any{}
	if err := contract.Call(&bind.CallOpts{Context: ctx}, &results, method, args...); err != nil {
		return nil, errors.Wrapf(err, "calling %s on %s", method, address.Hex())
	}

	return results, nil
}
