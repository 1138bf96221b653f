package chain

import (
	"context"
	"math/big"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrSimulationFailed marks errors from pre-flight simulation, no
	// transaction was broadcast when it is returned.
	ErrSimulationFailed = errors.New("transaction simulation failed")
	ErrNoSigner         = errors.New("no signer available")
)

// CallRequest describes one contract write.
type CallRequest struct {
	Contract common.Address
	ABI      *abi.ABI
	Method   string
	Args     []any
	Value    *big.Int // wei attached to call, nil for none
	GasLimit uint64   // estimated when zero
}

// Writer builds, signs and broadcasts contract calls.
type Writer struct {
	backend Backend
	chainID *big.Int
}

func NewWriter(backend Backend, chainID int64) *Writer {
	return &Writer{backend: backend, chainID: big.NewInt(chainID)}
}

func (w *Writer) ChainID() *big.Int {
	return new(big.Int).Set(w.chainID)
}

// Send simulates request against latest state first and only broadcasts it
// when simulation succeeds.
func (w *Writer) Send(ctx context.Context, signer Signer, req CallRequest) (common.Hash, error) {
	return w.send(ctx, signer, req, true)
}

// SendUnsimulated broadcasts request without pre-flight simulation.
func (w *Writer) SendUnsimulated(ctx context.Context, signer Signer, req CallRequest) (common.Hash, error) {
	return w.send(ctx, signer, req, false)
}

func (w *Writer) send(ctx context.Context, signer Signer, req CallRequest, simulate bool) (common.Hash, error) {
	if signer == nil {
		return common.Hash{}, ErrNoSigner
	}

	data, err := req.ABI.Pack(req.Method, req.Args...)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "encoding %s call", req.Method)
	}

	from := signer.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	msg := ethereum.CallMsg{
		From:  from,
		To:    &req.Contract,
		Value: value,
		Data:  data,
	}

	if simulate {
		if _, err := w.backend.CallContract(ctx, msg, nil); err != nil {
			return common.Hash{}, errors.Mark(errors.Wrapf(err, "simulating %s", req.Method), ErrSimulationFailed)
		}
		log.Debugf("simulation of %s passed", req.Method)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		gasLimit, err = w.backend.EstimateGas(ctx, msg)
		if err != nil {
			return common.Hash{}, errors.Wrapf(err, "estimating gas for %s", req.Method)
		}
	}

	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "suggesting gas price")
	}

	nonce, err := w.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "reading nonce of %s", from.Hex())
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &req.Contract,
		Value:    value,
		Data:     data,
	})

	signed, err := signer.SignTx(tx, w.chainID)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "signing transaction")
	}

	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, errors.Wrapf(err, "sending %s transaction", req.Method)
	}

	log.Debugf("sent %s: %s (nonce %d, gas %d)", req.Method, signed.Hash().Hex(), nonce, gasLimit)

	return signed.Hash(), nil
}

// ShMonadCall returns request for a method on shMONAD contract.
func ShMonadCall(contract common.Address, method string, value *big.Int, args ...any) CallRequest {
	return CallRequest{Contract: contract, ABI: &shMonadABI, Method: method, Args: args, Value: value}
}

// TaskManagerCall returns request for a method on TaskManager contract.
func TaskManagerCall(contract common.Address, method string, value *big.Int, args ...any) CallRequest {
	return CallRequest{Contract: contract, ABI: &taskManagerABI, Method: method, Args: args, Value: value}
}
