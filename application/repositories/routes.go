package repositories

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lugares-client/application/async"
	"lugares-client/application/fetch"
	"lugares-client/domain/entities"
	"lugares-client/infrastructure/acl"
	"lugares-client/infrastructure/cache"
	"lugares-client/infrastructure/observability"
	"lugares-client/infrastructure/remote"
	appErrors "lugares-client/pkg/errors"
)

var errUndecodableRoute = appErrors.NewProtocol("undecodable route payload")

// RoutesRepository mediates access to walking routes. Route lists are
// cached per destination with a shorter freshness window than places,
// because availability shifts during the day.
type RoutesRepository struct {
	client     remote.Client
	normalizer *acl.Normalizer
	cache      *cache.TimedCache[string, []entities.Route]
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewRoutesRepository builds the facade with its own per-destination cache.
func NewRoutesRepository(
	client remote.Client,
	normalizer *acl.Normalizer,
	ttl time.Duration,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *RoutesRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoutesRepository{
		client:     client,
		normalizer: normalizer,
		cache:      cache.New[string, []entities.Route](ttl, logger),
		logger:     logger,
		metrics:    metrics,
	}
}

// SetCacheTTL adjusts the per-destination freshness window at runtime.
func (r *RoutesRepository) SetCacheTTL(ttl time.Duration) {
	r.cache.SetTTL(ttl)
}

// ClearCache drops the cached routes for one destination.
func (r *RoutesRepository) ClearCache(placeID string) {
	r.cache.Invalidate(placeID)
}

// ClearAllCache drops every cached route list.
func (r *RoutesRepository) ClearAllCache() {
	r.cache.InvalidateAll()
}

// GetRoutesToDestination resolves to the routes leading to placeID. A blank
// destination resolves to an empty list without touching the network.
func (r *RoutesRepository) GetRoutesToDestination(ctx context.Context, placeID string) *async.Future[[]entities.Route] {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		r.logger.Warn("routes requested without destination")
		return async.Completed([]entities.Route{})
	}

	return fetch.Run(ctx, placeID, fetch.Plan[string, []entities.Route]{
		Cache: r.cache,
		Remote: func(ctx context.Context) ([]entities.Route, error) {
			env, err := r.client.Get(ctx, "/routes/to/"+url.PathEscape(placeID), nil)
			if err != nil {
				return nil, err
			}
			data, err := env.Payload()
			if err != nil {
				return nil, err
			}
			return r.normalizer.ToRouteList(data), nil
		},
		Seed: func() []entities.Route {
			return SeedRoutesTo(placeID)
		},
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "routes",
	})
}

// GetRouteDetails resolves to a single route including its path points, or
// nil when nothing is known about the ID anywhere.
func (r *RoutesRepository) GetRouteDetails(ctx context.Context, routeID string) *async.Future[*entities.Route] {
	routeID = strings.TrimSpace(routeID)
	if routeID == "" {
		return async.Completed[*entities.Route](nil)
	}

	fut := async.New[*entities.Route]()
	go func() {
		env, err := r.client.Get(ctx, "/routes/"+url.PathEscape(routeID)+"/details", nil)
		if err == nil {
			var data json.RawMessage
			if data, err = env.Payload(); err == nil {
				if obj, ok := acl.DecodeObject(data); ok {
					route := r.normalizer.ToRoute(obj)
					fut.Complete(&route)
					return
				}
				err = errUndecodableRoute
			}
		}

		r.metrics.RemoteFailure("routes")
		r.logger.Warn("fetching route details failed, searching cache", zap.String("routeId", routeID), zap.Error(err))
		fut.Complete(r.findCached(routeID))
	}()
	return fut
}

// GetNearestRoute resolves to the route to destID closest to the caller's
// position, or nil when the backend cannot answer and nothing is cached.
func (r *RoutesRepository) GetNearestRoute(ctx context.Context, lat, lng float64, destID string) *async.Future[*entities.Route] {
	destID = strings.TrimSpace(destID)
	if destID == "" {
		return async.Completed[*entities.Route](nil)
	}

	query := url.Values{
		"lat":         {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":         {strconv.FormatFloat(lng, 'f', -1, 64)},
		"destination": {destID},
	}

	fut := async.New[*entities.Route]()
	go func() {
		env, err := r.client.Get(ctx, "/routes/nearest", query)
		if err == nil {
			var data json.RawMessage
			if data, err = env.Payload(); err == nil {
				if obj, ok := acl.DecodeObject(data); ok {
					route := r.normalizer.ToRoute(obj)
					fut.Complete(&route)
					return
				}
				err = errUndecodableRoute
			}
		}

		r.metrics.RemoteFailure("routes")
		r.logger.Warn("fetching nearest route failed", zap.String("destination", destID), zap.Error(err))

		// Any known route to the destination beats nothing.
		if routes, ok := r.cache.GetStale(destID); ok && len(routes) > 0 {
			r.metrics.FallbackServed("routes", "stale")
			route := routes[0]
			fut.Complete(&route)
			return
		}
		if seeded := SeedRoutesTo(destID); len(seeded) > 0 {
			r.metrics.FallbackServed("routes", "seed")
			route := seeded[0]
			fut.Complete(&route)
			return
		}
		fut.Complete(nil)
	}()
	return fut
}

// GetRouteDestinations resolves to the places that have routes leading to
// them.
func (r *RoutesRepository) GetRouteDestinations(ctx context.Context) *async.Future[[]entities.Place] {
	return fetch.Run(ctx, "destinations", fetch.Plan[string, []entities.Place]{
		Remote: func(ctx context.Context) ([]entities.Place, error) {
			env, err := r.client.Get(ctx, "/routes/destinations", nil)
			if err != nil {
				return nil, err
			}
			data, err := env.Payload()
			if err != nil {
				return nil, err
			}
			return r.normalizer.ToPlaceList(data), nil
		},
		Seed: func() []entities.Place {
			seeded := SeedPlaces()
			out := make([]entities.Place, 0, len(seeded))
			for _, p := range seeded {
				if p.IsRouteDestination {
					out = append(out, p)
				}
			}
			return out
		},
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "routes",
	})
}

// CheckHealth probes the routes service health endpoint.
func (r *RoutesRepository) CheckHealth(ctx context.Context) *async.Future[bool] {
	fut := async.New[bool]()
	go func() {
		_, err := r.client.Get(ctx, "/routes/health", nil)
		if err != nil {
			r.logger.Warn("routes health check failed", zap.Error(err))
		}
		fut.Complete(err == nil)
	}()
	return fut
}

// findCached scans every cached route list, then the seed routes.
func (r *RoutesRepository) findCached(routeID string) *entities.Route {
	for _, key := range r.cache.Keys() {
		routes, ok := r.cache.GetStale(key)
		if !ok {
			continue
		}
		for _, route := range routes {
			if route.ID == routeID {
				found := route
				return &found
			}
		}
	}
	for _, route := range SeedRoutes() {
		if route.ID == routeID {
			found := route
			return &found
		}
	}
	return nil
}
