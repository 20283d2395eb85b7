package repositories

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
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

const placesCollectionKey = "all"

var errUndecodablePlace = appErrors.NewProtocol("undecodable place payload")

// PlacesRepository mediates access to campus places. The whole collection
// is cached under one key; per-criteria queries hit the backend and fall
// back to filtering whatever is cached (or seeded) locally.
type PlacesRepository struct {
	client     remote.Client
	normalizer *acl.Normalizer
	cache      *cache.TimedCache[string, []entities.Place]
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewPlacesRepository builds the facade with its own collection cache.
func NewPlacesRepository(
	client remote.Client,
	normalizer *acl.Normalizer,
	ttl time.Duration,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *PlacesRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlacesRepository{
		client:     client,
		normalizer: normalizer,
		cache:      cache.New[string, []entities.Place](ttl, logger),
		logger:     logger,
		metrics:    metrics,
	}
}

// SetCacheTTL adjusts the collection freshness window at runtime.
func (r *PlacesRepository) SetCacheTTL(ttl time.Duration) {
	r.cache.SetTTL(ttl)
}

// InvalidateCache drops every cached place, forcing the next call to the
// backend.
func (r *PlacesRepository) InvalidateCache() {
	r.cache.InvalidateAll()
}

// GetAllPlaces resolves to the full place collection: fresh cache, one
// remote attempt, stale cache, seed data — in that order.
func (r *PlacesRepository) GetAllPlaces(ctx context.Context) *async.Future[[]entities.Place] {
	return fetch.Run(ctx, placesCollectionKey, fetch.Plan[string, []entities.Place]{
		Cache:    r.cache,
		Remote:   r.fetchList("/places", nil),
		Seed:     SeedPlaces,
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "places",
	})
}

// SearchPlaces is the one two-phase operation in the layer. It delivers a
// best-effort local result immediately — a substring filter over whatever
// is cached or seeded — and may follow up with a single merged update once
// the backend answers. The channel carries at most two values and is then
// closed; a failed remote phase simply means the first value stands.
func (r *PlacesRepository) SearchPlaces(ctx context.Context, query string) <-chan []entities.Place {
	out := make(chan []entities.Place, 2)
	local := r.searchLocally(query)
	out <- local

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		remoteResults, err := r.fetchList("/places/search", url.Values{"q": {trimmed}})(ctx)
		if err != nil {
			r.metrics.RemoteFailure("places")
			r.logger.Debug("remote search failed, local result stands", zap.String("query", trimmed), zap.Error(err))
			return
		}
		out <- mergePlacesByID(remoteResults, local)
	}()
	return out
}

// GetPlaceByID resolves to a single place, or nil when it is unknown to
// backend, cache and seed data alike.
func (r *PlacesRepository) GetPlaceByID(ctx context.Context, id string) *async.Future[*entities.Place] {
	if strings.TrimSpace(id) == "" {
		return async.Completed[*entities.Place](nil)
	}

	fut := async.New[*entities.Place]()
	go func() {
		env, err := r.client.Get(ctx, "/places/"+url.PathEscape(id), nil)
		if err == nil {
			var data json.RawMessage
			if data, err = env.Payload(); err == nil {
				if obj, ok := acl.DecodeObject(data); ok {
					place := r.normalizer.ToPlace(obj)
					fut.Complete(&place)
					return
				}
				err = errUndecodablePlace
			}
		}

		r.metrics.RemoteFailure("places")
		r.logger.Warn("fetching place failed, searching cache", zap.String("id", id), zap.Error(err))
		fut.Complete(r.findCached(id))
	}()
	return fut
}

// GetPlacesByType resolves to the places tagged with placeType. The
// fallback filters the cached-or-seeded collection locally.
func (r *PlacesRepository) GetPlacesByType(ctx context.Context, placeType entities.PlaceType) *async.Future[[]entities.Place] {
	return fetch.Run(ctx, "type:"+string(placeType), fetch.Plan[string, []entities.Place]{
		Remote: r.fetchList("/places/type/"+url.PathEscape(string(placeType)), nil),
		Seed: func() []entities.Place {
			return filterPlaces(r.cachedOrSeed(), func(p entities.Place) bool {
				return p.Type == placeType
			})
		},
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "places",
	})
}

// GetAvailablePlaces resolves to the places currently marked available.
func (r *PlacesRepository) GetAvailablePlaces(ctx context.Context) *async.Future[[]entities.Place] {
	return fetch.Run(ctx, "available", fetch.Plan[string, []entities.Place]{
		Remote: r.fetchList("/places/available", nil),
		Seed: func() []entities.Place {
			return filterPlaces(r.cachedOrSeed(), func(p entities.Place) bool {
				return p.IsAvailable
			})
		},
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "places",
	})
}

// GetNearbyPlaces resolves to the places within radiusKm of the reference
// point, each with DistanceMeters recomputed client-side, sorted nearest
// first.
func (r *PlacesRepository) GetNearbyPlaces(ctx context.Context, lat, lng, radiusKm float64) *async.Future[[]entities.Place] {
	query := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lng":    {strconv.FormatFloat(lng, 'f', -1, 64)},
		"radius": {strconv.FormatFloat(radiusKm, 'f', -1, 64)},
	}
	radiusMeters := radiusKm * 1000

	withDistances := func(places []entities.Place) []entities.Place {
		for i := range places {
			places[i].DistanceMeters = entities.HaversineMeters(lat, lng, places[i].Latitude, places[i].Longitude)
		}
		sort.Slice(places, func(i, j int) bool {
			return places[i].DistanceMeters < places[j].DistanceMeters
		})
		return places
	}

	return fetch.Run(ctx, "nearby", fetch.Plan[string, []entities.Place]{
		Remote: func(ctx context.Context) ([]entities.Place, error) {
			places, err := r.fetchList("/places/nearby", query)(ctx)
			if err != nil {
				return nil, err
			}
			return withDistances(places), nil
		},
		Seed: func() []entities.Place {
			nearby := filterPlaces(r.cachedOrSeed(), func(p entities.Place) bool {
				return entities.HaversineMeters(lat, lng, p.Latitude, p.Longitude) <= radiusMeters
			})
			return withDistances(nearby)
		},
		Logger:   r.logger,
		Metrics:  r.metrics,
		Resource: "places",
	})
}

// CheckHealth probes backend reachability. The auth health endpoint is the
// probe the backend actually serves.
func (r *PlacesRepository) CheckHealth(ctx context.Context) *async.Future[bool] {
	fut := async.New[bool]()
	go func() {
		_, err := r.client.Get(ctx, "/auth/health", nil)
		if err != nil {
			r.logger.Warn("health check failed", zap.Error(err))
		}
		fut.Complete(err == nil)
	}()
	return fut
}

// fetchList builds the remote step shared by the collection operations:
// one GET, envelope unwrap, list normalization.
func (r *PlacesRepository) fetchList(path string, query url.Values) fetch.RemoteFunc[[]entities.Place] {
	return func(ctx context.Context) ([]entities.Place, error) {
		env, err := r.client.Get(ctx, path, query)
		if err != nil {
			return nil, err
		}
		data, err := env.Payload()
		if err != nil {
			return nil, err
		}
		return r.normalizer.ToPlaceList(data), nil
	}
}

// cachedOrSeed is the local dataset the fallback filters run against:
// stale cache when present, seed data otherwise.
func (r *PlacesRepository) cachedOrSeed() []entities.Place {
	if cached, ok := r.cache.GetStale(placesCollectionKey); ok && len(cached) > 0 {
		return cached
	}
	return SeedPlaces()
}

func (r *PlacesRepository) searchLocally(query string) []entities.Place {
	return filterPlaces(r.cachedOrSeed(), func(p entities.Place) bool {
		return p.MatchesQuery(query)
	})
}

func (r *PlacesRepository) findCached(id string) *entities.Place {
	for _, p := range r.cachedOrSeed() {
		if p.ID == id {
			place := p
			return &place
		}
	}
	return nil
}

func filterPlaces(places []entities.Place, keep func(entities.Place) bool) []entities.Place {
	out := make([]entities.Place, 0, len(places))
	for _, p := range places {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// mergePlacesByID combines two result sets, preferring the first on ID
// collisions and preserving order.
func mergePlacesByID(primary, secondary []entities.Place) []entities.Place {
	seen := make(map[string]struct{}, len(primary))
	merged := make([]entities.Place, 0, len(primary)+len(secondary))
	for _, p := range primary {
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range secondary {
		if _, dup := seen[p.ID]; !dup {
			merged = append(merged, p)
		}
	}
	return merged
}
