package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-router/internal/database"
	"itinerary-router/internal/models"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store, err := New(Config{Driver: DriverSQLite, DSN: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleItinerary() *models.Itinerary {
	start := models.Coordinates{Lat: 12.97, Lng: 77.59}
	return &models.Itinerary{
		SessionID: "sess-1",
		Start:     &start,
		Mode:      models.ModeWalking,
		Stops: []models.Stop{
			{ID: "a", Name: "Fort", Order: 1, Day: 1, Coordinates: models.Coordinates{Lat: 12.98, Lng: 77.6},
				DistanceToNext: lo.ToPtr(1.5), TravelTimeToNext: lo.ToPtr(18.0)},
			{ID: "b", Name: "Lake", Order: 2, Day: 1, Coordinates: models.Coordinates{Lat: 13.0, Lng: 77.62}},
		},
		TotalDistanceKm:  3.2,
		TotalDurationMin: 40,
		Geometry:         []models.Coordinates{start, {Lat: 13.0, Lng: 77.62}},
		Days: []models.Day{{Day: 1, Stops: []models.Stop{{ID: "a", Order: 1}, {ID: "b", Order: 2}}}},
		DayRoutes: map[int]models.DayRoute{
			1: {TotalDistanceKm: 3.2, TotalDurationMin: 40, Geometry: []models.Coordinates{start}},
		},
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	logger, _ := test.NewNullLogger()
	_, err := New(Config{Driver: "oracle"}, logger)
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewReopensExistingSchema(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := t.TempDir() + "/nested/data.db"

	first, err := New(Config{DSN: path}, logger)
	require.NoError(t, err)
	_, err = first.Itineraries().Create(context.Background(), sampleItinerary())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(Config{DSN: path}, logger)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Itineraries().Get(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Fort", got.Stops[0].Name)
}

func TestItineraryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryStore(t).Itineraries()

	created, err := repo.Create(ctx, sampleItinerary())
	require.NoError(t, err)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)
	assert.Equal(t, sampleItinerary().Stops, got.Stops)
	assert.Equal(t, 3.2, got.DayRoutes[1].TotalDistanceKm)

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		stops := []models.Stop{got.Stops[1], got.Stops[0]}
		updated, err := repo.Update(ctx, "sess-1", models.ItineraryPatch{
			Stops:      &stops,
			RouteStale: lo.ToPtr(true),
		})
		require.NoError(t, err)
		assert.Equal(t, "b", updated.Stops[0].ID)
		assert.True(t, updated.RouteStale)

		reread, err := repo.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, "b", reread.Stops[0].ID)
		assert.Equal(t, got.Geometry, reread.Geometry)
		assert.Equal(t, 3.2, reread.TotalDistanceKm)
		assert.Equal(t, got.CreatedAt, reread.CreatedAt)
		assert.False(t, reread.UpdatedAt.Before(got.UpdatedAt))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "sess-1"))
		_, err := repo.Get(ctx, "sess-1")
		assert.ErrorIs(t, err, database.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "sess-1"), database.ErrNotFound)
	})
}

func TestItineraryUpdateMissing(t *testing.T) {
	_, err := newMemoryStore(t).Itineraries().Update(context.Background(), "nope", models.ItineraryPatch{})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestItineraryCreateRequiresSessionID(t *testing.T) {
	it := sampleItinerary()
	it.SessionID = ""
	_, err := newMemoryStore(t).Itineraries().Create(context.Background(), it)
	assert.Error(t, err)
}

func TestRouteCache(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	cache := store.RouteCache()

	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.routeCacheRepo.(*routeCacheRepository).now = func() time.Time { return clock }

	var miss models.TripOrder
	found, err := cache.Get(ctx, "trip:foot:x", &miss)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "trip:foot:x", models.TripOrder{Order: []int{0, 2, 1}, TotalDistanceKm: 4}))
	require.NoError(t, cache.Set(ctx, "trip:foot:x", models.TripOrder{Order: []int{0, 1, 2}, TotalDistanceKm: 5}))

	var hit models.TripOrder
	found, err = cache.Get(ctx, "trip:foot:x", &hit)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []int{0, 1, 2}, hit.Order, "second write replaces the first")

	clock = clock.Add(DefaultRouteCacheTTL + time.Second)
	found, err = cache.Get(ctx, "trip:foot:x", &hit)
	require.NoError(t, err)
	assert.False(t, found, "expired entries read as misses")

	purged, err := cache.Purge(ctx, clock)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func TestHealthCheck(t *testing.T) {
	assert.NoError(t, newMemoryStore(t).HealthCheck(context.Background()))
}
