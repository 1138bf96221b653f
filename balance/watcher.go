package balance

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/atomic"
)

// Watcher refreshes snapshot of an account periodically.
type Watcher struct {
	fetcher  *Fetcher
	interval time.Duration
	inFlight *atomic.Bool
}

func NewWatcher(fetcher *Fetcher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}

	return &Watcher{
		fetcher:  fetcher,
		interval: interval,
		inFlight: atomic.NewBool(false),
	}
}

// Run fetches snapshot right away and then on every tick, handing each
// result to fn. A tick is skipped while previous fetch is still running.
// Run returns after ctx is done and running fetch has finished.
func (w *Watcher) Run(ctx context.Context, account common.Address, fn func(Snapshot)) {
	wg := sync.WaitGroup{}
	defer wg.Wait()

	refresh := func() {
		if !w.inFlight.CAS(false, true) {
			log.Debugf("balance refresh of %s still running, skipping tick", account.Hex())
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer w.inFlight.Store(false)

			snapshot := w.fetcher.Fetch(ctx, account)
			if ctx.Err() == nil {
				fn(snapshot)
			}
		}()
	}

	refresh()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}
