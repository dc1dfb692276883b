package georoute

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"itinerary-router/internal/models"
)

// ResultCache stores JSON-encodable routing results
type ResultCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// CachedClient serves repeated queries from a ResultCache and collapses
// concurrent identical queries into one upstream call.
type CachedClient struct {
	next  RouteClient
	cache ResultCache
	group singleflight.Group
	log   logrus.FieldLogger
}

var _ RouteClient = (*CachedClient)(nil)

func NewCachedClient(next RouteClient, cache ResultCache, log logrus.FieldLogger) *CachedClient {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedClient{next: next, cache: cache, log: log.WithField("component", "georoute")}
}

func cacheKey(service string, coords []models.Coordinates, mode models.TravelMode) string {
	return fmt.Sprintf("%s:%s:%s", service, Profile(mode), encodeCoords(coords))
}

func (c *CachedClient) ComputeOrderedRoute(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.RouteResult, error) {
	if err := validateCoords(coords); err != nil {
		return nil, err
	}
	key := cacheKey("route", coords, mode)
	v, err := c.load(ctx, key, new(models.RouteResult), func(ctx context.Context) (any, error) {
		return c.next.ComputeOrderedRoute(ctx, coords, mode)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.RouteResult), nil
}

func (c *CachedClient) OptimizeOrder(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.TripOrder, error) {
	if err := validateCoords(coords); err != nil {
		return nil, err
	}
	key := cacheKey("trip", coords, mode)
	v, err := c.load(ctx, key, new(models.TripOrder), func(ctx context.Context) (any, error) {
		return c.next.OptimizeOrder(ctx, coords, mode)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.TripOrder), nil
}

// load returns a cached value decoded into dst, or calls fetch once per key.
// The shared fetch is detached from any single caller's cancellation; each
// caller still stops waiting when its own ctx is done. Cache failures are
// logged and never fail the query.
func (c *CachedClient) load(ctx context.Context, key string, dst any, fetch func(context.Context) (any, error)) (any, error) {
	found, err := c.cache.Get(ctx, key, dst)
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("route cache read failed")
	}
	if found {
		return dst, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		res, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if err := c.cache.Set(shared, key, res); err != nil {
			c.log.WithError(err).WithField("key", key).Warn("route cache write failed")
		}
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			c.log.WithField("key", key).Debug("joined in-flight routing query")
		}
		return r.Val, nil
	}
}
