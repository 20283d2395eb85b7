// Package fetch holds the one fallback algorithm every repository method
// shares: fresh cache, then a single remote attempt, then stale cache, then
// seed data. The returned future always resolves with some value — a
// transport outage, a rejecting backend or an unparseable payload never
// surfaces as an error to the caller.
package fetch

import (
	"context"

	"go.uber.org/zap"

	"lugares-client/application/async"
	"lugares-client/infrastructure/cache"
	"lugares-client/infrastructure/observability"
)

// RemoteFunc performs the remote fetch, normalization included. An error
// covers transport failures, protocol rejections and payloads that could
// not produce normalized data; the orchestrator treats them all the same.
type RemoteFunc[V any] func(ctx context.Context) (V, error)

// SeedFunc produces the static last-resort dataset. It may return an empty
// value; it must not fail.
type SeedFunc[V any] func() V

// Plan wires one fetch operation. Cache may be nil for operations without
// a dedicated cache; the stale step is then skipped and failures go
// straight to seed data.
type Plan[K comparable, V any] struct {
	Cache    *cache.TimedCache[K, V]
	Remote   RemoteFunc[V]
	Seed     SeedFunc[V]
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Resource string
}

// Run executes the fallback chain for key. Exactly one remote call is
// attempted per invocation — there is no retry and no coalescing of
// concurrent fetches for the same key, so whichever in-flight call
// completes last overwrites the cache (last writer wins).
func Run[K comparable, V any](ctx context.Context, key K, p Plan[K, V]) *async.Future[V] {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if p.Cache != nil {
		if v, ok := p.Cache.GetFresh(key); ok {
			p.Metrics.CacheHit(p.Resource)
			logger.Debug("serving fresh cache entry", zap.String("resource", p.Resource))
			return async.Completed(v)
		}
		p.Metrics.CacheMiss(p.Resource)
	}

	fut := async.New[V]()
	go func() {
		v, err := p.Remote(ctx)
		if err == nil {
			if p.Cache != nil {
				p.Cache.Put(key, v)
			}
			fut.Complete(v)
			return
		}

		p.Metrics.RemoteFailure(p.Resource)
		logger.Warn("remote fetch failed, falling back",
			zap.String("resource", p.Resource),
			zap.Error(err),
		)

		// Prefer real stale data over synthetic seed data.
		if p.Cache != nil {
			if stale, ok := p.Cache.GetStale(key); ok {
				p.Metrics.FallbackServed(p.Resource, "stale")
				fut.Complete(stale)
				return
			}
		}

		p.Metrics.FallbackServed(p.Resource, "seed")
		fut.Complete(p.Seed())
	}()
	return fut
}
