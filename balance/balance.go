// Package balance gathers every balance figure of an account in one
// snapshot.
package balance

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/SirZenith/taskmon/chain"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
)

// Reader is the set of chain reads a snapshot is built from.
type Reader interface {
	CurrentPolicyID(ctx context.Context) uint64
	NativeBalance(ctx context.Context, account common.Address) (*big.Int, error)
	Balance(ctx context.Context, account common.Address) (*big.Int, error)
	BondedBalance(ctx context.Context, account common.Address) (*big.Int, error)
	BondedBalanceByPolicy(ctx context.Context, policyID uint64, account common.Address) (*big.Int, error)
	UnbondingBalance(ctx context.Context, policyID uint64, account common.Address) (*big.Int, error)
	UnbondingCompleteBlock(ctx context.Context, policyID uint64, account common.Address) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

type Snapshot struct {
	Address  common.Address
	PolicyID uint64

	Native       *big.Int // MON in wei
	ShMonad      *big.Int
	Bonded       *big.Int // across all policies
	PolicyBonded *big.Int // under PolicyID
	Unbonding    *big.Int

	UnbondingCompleteBlock uint64
	CurrentBlock           uint64

	FetchedAt time.Time
}

// UnbondingStatus returns unbonding part of snapshot.
func (s Snapshot) UnbondingStatus() chain.UnbondingStatus {
	return chain.UnbondingStatus{
		Amount:        s.Unbonding,
		CompleteBlock: s.UnbondingCompleteBlock,
		CurrentBlock:  s.CurrentBlock,
	}
}

// Fetcher runs reads of a snapshot concurrently on a worker pool.
type Fetcher struct {
	reader Reader
	pool   *ants.Pool
}

func NewFetcher(reader Reader, workers int) (*Fetcher, error) {
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, errors.Wrap(err, "creating balance worker pool")
	}

	return &Fetcher{reader: reader, pool: pool}, nil
}

// Release stops worker pool.
func (f *Fetcher) Release() {
	f.pool.Release()
}

// Fetch reads every figure of account. A failed read leaves zero in its
// field and is logged as warning.
func (f *Fetcher) Fetch(ctx context.Context, account common.Address) Snapshot {
	snapshot := Snapshot{
		Address:      account,
		Native:       new(big.Int),
		ShMonad:      new(big.Int),
		Bonded:       new(big.Int),
		PolicyBonded: new(big.Int),
		Unbonding:    new(big.Int),
	}

	policyID := f.reader.CurrentPolicyID(ctx)
	snapshot.PolicyID = policyID

	jobs := []struct {
		name string
		run  func() error
	}{
		{"native balance", func() error {
			return setBig(&snapshot.Native, func() (*big.Int, error) { return f.reader.NativeBalance(ctx, account) })
		}},
		{"shMONAD balance", func() error {
			return setBig(&snapshot.ShMonad, func() (*big.Int, error) { return f.reader.Balance(ctx, account) })
		}},
		{"bonded balance", func() error {
			return setBig(&snapshot.Bonded, func() (*big.Int, error) { return f.reader.BondedBalance(ctx, account) })
		}},
		{"policy bonded balance", func() error {
			return setBig(&snapshot.PolicyBonded, func() (*big.Int, error) {
				return f.reader.BondedBalanceByPolicy(ctx, policyID, account)
			})
		}},
		{"unbonding balance", func() error {
			return setBig(&snapshot.Unbonding, func() (*big.Int, error) {
				return f.reader.UnbondingBalance(ctx, policyID, account)
			})
		}},
		{"unbonding complete block", func() (err error) {
			snapshot.UnbondingCompleteBlock, err = f.reader.UnbondingCompleteBlock(ctx, policyID, account)
			return err
		}},
		{"block number", func() (err error) {
			snapshot.CurrentBlock, err = f.reader.BlockNumber(ctx)
			return err
		}},
	}

	wg := sync.WaitGroup{}
	for _, job := range jobs {
		job := job
		task := func() {
			defer wg.Done()
			if err := job.run(); err != nil {
				log.Warnf("failed to read %s of %s: %s", job.name, account.Hex(), err)
			}
		}

		wg.Add(1)
		if err := f.pool.Submit(task); err != nil {
			log.Debugf("running %s inline: %s", job.name, err)
			task()
		}
	}
	wg.Wait()

	snapshot.FetchedAt = time.Now()

	return snapshot
}

// setBig stores result of read into dst, leaving dst untouched on error.
func setBig(dst **big.Int, read func() (*big.Int, error)) error {
	value, err := read()
	if err != nil {
		return err
	}
	if value != nil {
		*dst = value
	}
	return nil
}
