package database

import (
	"context"
	"time"

	"itinerary-router/internal/models"
)

// DataStore is the interface for data persistence
type DataStore interface {
	Close() error
	HealthCheck(ctx context.Context) error
	Itineraries() ItineraryRepository
	RouteCache() RouteCacheRepository
}

// ItineraryRepository handles itinerary persistence keyed by session id
type ItineraryRepository interface {
	Get(ctx context.Context, sessionID string) (*models.Itinerary, error)
	Create(ctx context.Context, it *models.Itinerary) (*models.Itinerary, error)
	// Update merges the non-nil fields of patch into the stored itinerary
	Update(ctx context.Context, sessionID string, patch models.ItineraryPatch) (*models.Itinerary, error)
	Delete(ctx context.Context, sessionID string) error
}

// RouteCacheRepository stores routing results with an expiry. It satisfies
// the result cache used by the caching route client.
type RouteCacheRepository interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Purge(ctx context.Context, now time.Time) (int64, error)
}
