package testutil

import (
	"context"
	"fmt"
	"math"
	"sync"

	"itinerary-router/internal/models"
)

// RouterCall records one call made to FakeRouter
type RouterCall struct {
	Coords []models.Coordinates
	Mode   models.TravelMode
}

// FakeRouter is an in-memory route client for tests.
// Distances are scaled Euclidean distances, durations assume 50 km/h.
// OptimizeOrder visits interior points nearest-first with both ends pinned.
type FakeRouter struct {
	mu sync.Mutex

	ScaleFactor float64

	// TripOrder, when set, is returned by OptimizeOrder instead of the greedy order
	TripOrder []int
	RouteErr  error
	TripErr   error

	RouteCalls []RouterCall
	TripCalls  []RouterCall
}

func NewFakeRouter() *FakeRouter {
	return &FakeRouter{
		ScaleFactor: 111, // 1 degree ≈ 111km
	}
}

func (f *FakeRouter) km(a, b models.Coordinates) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * f.ScaleFactor
}

func minutes(km float64) float64 {
	return km / 50 * 60
}

func (f *FakeRouter) ComputeOrderedRoute(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.RouteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.RouteCalls = append(f.RouteCalls, RouterCall{Coords: append([]models.Coordinates(nil), coords...), Mode: mode})
	if f.RouteErr != nil {
		return nil, f.RouteErr
	}
	if len(coords) < 2 {
		return nil, models.ErrInsufficientStops
	}

	res := &models.RouteResult{
		Order:    make([]int, len(coords)),
		Geometry: append([]models.Coordinates(nil), coords...),
	}
	for i := range coords {
		res.Order[i] = i
	}
	for i := 1; i < len(coords); i++ {
		d := f.km(coords[i-1], coords[i])
		res.PerLegDistanceKm = append(res.PerLegDistanceKm, d)
		res.PerLegDurationMin = append(res.PerLegDurationMin, minutes(d))
		res.PerLegInstructions = append(res.PerLegInstructions, []string{
			fmt.Sprintf("Head to point %d (%.1f km)", i, d),
			"Arrive at your destination",
		})
		res.TotalDistanceKm += d
		res.TotalDurationMin += minutes(d)
	}
	return res, nil
}

func (f *FakeRouter) OptimizeOrder(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.TripOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.TripCalls = append(f.TripCalls, RouterCall{Coords: append([]models.Coordinates(nil), coords...), Mode: mode})
	if f.TripErr != nil {
		return nil, f.TripErr
	}
	if len(coords) < 2 {
		return nil, models.ErrInsufficientStops
	}

	order := f.TripOrder
	if order == nil {
		order = f.greedyOrder(coords)
	}

	out := &models.TripOrder{Order: append([]int(nil), order...)}
	for i := 1; i < len(order); i++ {
		d := f.km(coords[order[i-1]], coords[order[i]])
		out.TotalDistanceKm += d
		out.TotalDurationMin += minutes(d)
	}
	return out, nil
}

// greedyOrder keeps the first and last point fixed and visits the rest nearest-first
func (f *FakeRouter) greedyOrder(coords []models.Coordinates) []int {
	n := len(coords)
	order := []int{0}
	visited := make([]bool, n)
	visited[0] = true
	visited[n-1] = true

	current := 0
	for len(order) < n-1 {
		best := -1
		bestDist := math.MaxFloat64
		for i := 1; i < n-1; i++ {
			if visited[i] {
				continue
			}
			if d := f.km(coords[current], coords[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best
	}
	return append(order, n-1)
}

// Calls returns the number of route and trip calls made so far
func (f *FakeRouter) Calls() (route, trip int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.RouteCalls), len(f.TripCalls)
}
