package chain

import (
	"context"
	"time"

	"github.com/ReneKroon/ttlcache/v2"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
)

const (
	keyTaskManager = "taskManager"
	keyShMonad     = "shMonad"
	keyPolicyID    = "policyId"
)

// Resolver looks up contract addresses from AddressHub and keeps results
// for a while, addresses registered in hub rarely change.
type Resolver struct {
	backend Backend
	hub     common.Address
	cache   *ttlcache.Cache
}

func NewResolver(backend Backend, hub common.Address, ttl time.Duration) (*Resolver, error) {
	cache := ttlcache.NewCache()
	if ttl > 0 {
		if err := cache.SetTTL(ttl); err != nil {
			cache.Close()
			return nil, errors.Wrap(err, "setting address cache TTL")
		}
	}
	cache.SkipTTLExtensionOnHit(true)

	return &Resolver{
		backend: backend,
		hub:     hub,
		cache:   cache,
	}, nil
}

// Hub returns address of AddressHub contract.
func (r *Resolver) Hub() common.Address {
	return r.hub
}

// Close stops cache's expiration goroutine.
func (r *Resolver) Close() error {
	return r.cache.Close()
}

// Invalidate drops every cached value.
func (r *Resolver) Invalidate() {
	if err := r.cache.Purge(); err != nil {
		log.Warnf("failed to purge address cache: %s", err)
	}
}

func (r *Resolver) TaskManager(ctx context.Context) (common.Address, error) {
	return r.hubAddress(ctx, keyTaskManager)
}

func (r *Resolver) ShMonad(ctx context.Context) (common.Address, error) {
	return r.hubAddress(ctx, keyShMonad)
}

// Contracts resolves every address this program needs.
func (r *Resolver) Contracts(ctx context.Context) (Contracts, error) {
	taskManager, err := r.TaskManager(ctx)
	if err != nil {
		return Contracts{}, err
	}

	shMonad, err := r.ShMonad(ctx)
	if err != nil {
		return Contracts{}, err
	}

	return Contracts{TaskManager: taskManager, ShMonad: shMonad}, nil
}

// hubAddress reads address returned by a no argument getter on AddressHub,
// getter name doubles as cache key.
func (r *Resolver) hubAddress(ctx context.Context, getter string) (common.Address, error) {
	value, err := r.cached(getter, func() (any, error) {
		results, err := call(ctx, r.backend, &addressHubABI, r.hub, getter)
		if err != nil {
			return nil, err
		}

		addr, ok := results[0].(common.Address)
		if !ok {
			return nil, errors.Newf("unexpected result type %T from AddressHub.%s", results[0], getter)
		}

		if addr == (common.Address{}) {
			return nil, errors.Newf("AddressHub.%s returned zero address", getter)
		}

		log.Debugf("resolved %s: %s", getter, addr.Hex())

		return addr, nil
	})
	if err != nil {
		return common.Address{}, err
	}

	return value.(common.Address), nil
}

// cached returns value stored under key, calling load on miss. Failed loads
// are not stored.
func (r *Resolver) cached(key string, load func() (any, error)) (any, error) {
	value, err := r.cache.Get(key)
	if err == nil {
		return value, nil
	} else if !errors.Is(err, ttlcache.ErrNotFound) {
		log.Debugf("address cache lookup for %s failed: %s", key, err)
	}

	value, err = load()
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(key, value); err != nil {
		log.Debugf("failed to cache %s: %s", key, err)
	}

	return value, nil
}
