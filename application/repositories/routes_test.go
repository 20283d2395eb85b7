package repositories

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lugares-client/infrastructure/acl"
	"lugares-client/infrastructure/remote/mocks"
	"lugares-client/tests/fixtures"
)

func newRoutesRepo(t *testing.T, client *mocks.MockClient, ttl time.Duration) *RoutesRepository {
	t.Helper()
	return NewRoutesRepository(client, acl.NewNormalizer(nil, nil), ttl, nil, nil)
}

func libraryRoutePayload(id string) map[string]any {
	return fixtures.NewRouteBuilder().
		WithID(id).
		WithDestination(fixtures.NewPlaceBuilder().WithID("seed-1").Build()).
		Build()
}

func TestGetRoutesToDestination_CachesPerDestination(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/to/seed-1", url.Values(nil)).
		Return(fixtures.SuccessEnvelope([]map[string]any{libraryRoutePayload("r-1")}), nil).Once()
	client.On("Get", mock.Anything, "/routes/to/seed-2", url.Values(nil)).
		Return(fixtures.SuccessEnvelope([]map[string]any{libraryRoutePayload("r-2")}), nil).Once()

	routes, err := repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "r-1", routes[0].ID)

	// A different destination is its own cache entry.
	routes, err = repo.GetRoutesToDestination(ctx, "seed-2").Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r-2", routes[0].ID)

	// Both are now cached.
	_, err = repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)
	_, err = repo.GetRoutesToDestination(ctx, "seed-2").Await(ctx)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Get", 2)
}

func TestGetRoutesToDestination_BlankDestination(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	routes, err := repo.GetRoutesToDestination(ctx, "  ").Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
	client.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRoutesToDestination_FallsBackToSeedRoutes(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/to/seed-1", url.Values(nil)).
		Return(nil, transportDown()).Once()

	routes, err := repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "seed-route-1", routes[0].ID)

	// A destination no seed route leads to yields an empty list, not nil
	// panic or error.
	client.On("Get", mock.Anything, "/routes/to/ghost", url.Values(nil)).
		Return(nil, transportDown()).Once()
	routes, err = repo.GetRoutesToDestination(ctx, "ghost").Await(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestGetRouteDetails_RemoteSuccess(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/r-1/details", url.Values(nil)).
		Return(fixtures.SuccessEnvelope(libraryRoutePayload("r-1")), nil).Once()

	route, err := repo.GetRouteDetails(ctx, "r-1").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "r-1", route.ID)
	assert.Len(t, route.Points, 2)
}

func TestGetRouteDetails_FallsBackToCachedLists(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	// Prime the per-destination cache.
	client.On("Get", mock.Anything, "/routes/to/seed-1", url.Values(nil)).
		Return(fixtures.SuccessEnvelope([]map[string]any{libraryRoutePayload("r-1")}), nil).Once()
	_, err := repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)

	client.On("Get", mock.Anything, "/routes/r-1/details", url.Values(nil)).
		Return(nil, transportDown()).Once()

	route, err := repo.GetRouteDetails(ctx, "r-1").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "r-1", route.ID)
}

func TestGetRouteDetails_SeedRouteFoundOffline(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/seed-route-2/details", url.Values(nil)).
		Return(nil, transportDown()).Once()

	route, err := repo.GetRouteDetails(ctx, "seed-route-2").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "seed-route-2", route.ID)
}

func TestGetRouteDetails_UnknownEverywhereResolvesNil(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/ghost/details", url.Values(nil)).
		Return(nil, transportDown()).Once()

	route, err := repo.GetRouteDetails(ctx, "ghost").Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestGetNearestRoute_RemoteSuccess(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	expectedQuery := url.Values{
		"lat":         {"-0.2107"},
		"lng":         {"-78.4873"},
		"destination": {"seed-1"},
	}
	client.On("Get", mock.Anything, "/routes/nearest", expectedQuery).
		Return(fixtures.SuccessEnvelope(libraryRoutePayload("r-near")), nil).Once()

	route, err := repo.GetNearestRoute(ctx, -0.2107, -78.4873, "seed-1").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "r-near", route.ID)
}

func TestGetNearestRoute_FallsBackStaleThenSeed(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	// No cache yet: the seed route to the destination is served.
	client.On("Get", mock.Anything, "/routes/nearest", mock.Anything).
		Return(nil, transportDown())

	route, err := repo.GetNearestRoute(ctx, 0, 0, "seed-2").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "seed-route-2", route.ID)

	// With a cached list present, stale data wins over seeds.
	client.On("Get", mock.Anything, "/routes/to/seed-1", url.Values(nil)).
		Return(fixtures.SuccessEnvelope([]map[string]any{libraryRoutePayload("r-cached")}), nil).Once()
	_, err = repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)

	route, err = repo.GetNearestRoute(ctx, 0, 0, "seed-1").Await(ctx)
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "r-cached", route.ID)

	// Unknown destination with nothing cached resolves nil.
	route, err = repo.GetNearestRoute(ctx, 0, 0, "ghost").Await(ctx)
	require.NoError(t, err)
	assert.Nil(t, route)
}

func TestGetRouteDestinations_FallbackFiltersSeeds(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/destinations", url.Values(nil)).
		Return(nil, transportDown()).Once()

	places, err := repo.GetRouteDestinations(ctx).Await(ctx)
	require.NoError(t, err)
	require.Len(t, places, 2, "only seed places flagged as destinations")
	assert.Equal(t, "seed-1", places[0].ID)
	assert.Equal(t, "seed-2", places[1].ID)
}

func TestRoutesCheckHealth(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/health", url.Values(nil)).
		Return(fixtures.SuccessEnvelope(map[string]any{"status": "ok"}), nil).Once()
	healthy, err := repo.CheckHealth(ctx).Await(ctx)
	require.NoError(t, err)
	assert.True(t, healthy)
}

func TestClearCache_DropsOneDestination(t *testing.T) {
	client := mocks.NewMockClient()
	repo := newRoutesRepo(t, client, 2*time.Minute)
	ctx := context.Background()

	client.On("Get", mock.Anything, "/routes/to/seed-1", url.Values(nil)).
		Return(fixtures.SuccessEnvelope([]map[string]any{libraryRoutePayload("r-1")}), nil).Twice()

	_, err := repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)

	repo.ClearCache("seed-1")

	_, err = repo.GetRoutesToDestination(ctx, "seed-1").Await(ctx)
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Get", 2)
}
