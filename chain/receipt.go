package chain

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

type ReceiptBackend interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitForReceipt polls for receipt of hash until it appears or timeout runs
// out. One confirmation is enough.
func WaitForReceipt(ctx context.Context, backend ReceiptBackend, hash common.Hash, timeout, interval time.Duration) (*types.Receipt, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		} else if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			log.Debugf("receipt query for %s failed: %s", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			err := errors.Wrapf(ctx.Err(), "waiting for receipt of %s", hash.Hex())
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = errors.Mark(err, ErrReceiptTimeout)
			}
			return nil, err
		case <-ticker.C:
		}
	}
}

// Succeeded reports whether receipt's execution status is success.
func Succeeded(receipt *types.Receipt) bool {
	return receipt != nil && receipt.Status == types.ReceiptStatusSuccessful
}
