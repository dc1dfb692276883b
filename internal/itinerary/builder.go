// Package itinerary builds routed itineraries, groups stops into days and
// applies user edits and re-optimizations.
package itinerary

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/georoute"
	"itinerary-router/internal/models"
)

// Builder turns a start location and a set of stops into a routed itinerary
type Builder struct {
	router georoute.RouteClient
	log    logrus.FieldLogger
}

func NewBuilder(router georoute.RouteClient, log logrus.FieldLogger) *Builder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Builder{router: router, log: log.WithField("component", "itinerary")}
}

// routedStops is the outcome of ordering and routing a list of stops
type routedStops struct {
	stops []models.Stop
	route *models.RouteResult
}

// Build orders stops from start, routes them and returns a complete itinerary.
// Any routing failure fails the whole build.
func (b *Builder) Build(ctx context.Context, start models.Coordinates, stops []models.Stop, mode models.TravelMode) (*models.Itinerary, error) {
	if !start.Valid() {
		return nil, fmt.Errorf("start location: %w", models.ErrInvalidCoordinates)
	}

	routable := b.routable(stops)
	it := &models.Itinerary{
		Start:    &start,
		Mode:     mode,
		Stops:    []models.Stop{},
		Geometry: []models.Coordinates{},
	}

	if len(routable) == 0 {
		return it, nil
	}

	res, err := b.orderAndRoute(ctx, &start, routable, mode)
	if err != nil {
		return nil, err
	}

	it.Stops = res.stops
	it.TotalDistanceKm = res.route.TotalDistanceKm
	it.TotalDurationMin = res.route.TotalDurationMin
	it.Geometry = res.route.Geometry
	it.Instructions = res.route.PerLegInstructions

	b.log.WithFields(logrus.Fields{
		"stops": len(it.Stops),
		"km":    fmt.Sprintf("%.2f", it.TotalDistanceKm),
		"mode":  mode,
	}).Info("itinerary built")

	return it, nil
}

// routable copies the stops that carry usable coordinates
func (b *Builder) routable(stops []models.Stop) []models.Stop {
	out := lo.Filter(cloneStops(stops), func(s models.Stop, _ int) bool {
		return s.Coordinates.Valid()
	})
	if dropped := len(stops) - len(out); dropped > 0 {
		b.log.WithField("dropped", dropped).Warn("stops with invalid coordinates excluded from routing")
	}
	return out
}

// orderAndRoute settles the visiting order and then fetches the route for
// that order. With a start, the start is the fixed origin and is not part of
// the returned stops. Without one, the first stop anchors the route.
func (b *Builder) orderAndRoute(ctx context.Context, start *models.Coordinates, stops []models.Stop, mode models.TravelMode) (*routedStops, error) {
	coords := make([]models.Coordinates, 0, len(stops)+1)
	if start != nil {
		coords = append(coords, *start)
	}
	for _, s := range stops {
		coords = append(coords, s.Coordinates)
	}

	ordered := stops
	if len(stops) >= 2 {
		trip, err := b.router.OptimizeOrder(ctx, coords, mode)
		if err != nil {
			return nil, fmt.Errorf("optimize order: %w", err)
		}
		ordered, err = applyOrder(stops, trip.Order, start != nil)
		if err != nil {
			return nil, err
		}
		coords = coords[:0]
		if start != nil {
			coords = append(coords, *start)
		}
		for _, s := range ordered {
			coords = append(coords, s.Coordinates)
		}
	}

	route, err := b.router.ComputeOrderedRoute(ctx, coords, mode)
	if err != nil {
		return nil, fmt.Errorf("compute route: %w", err)
	}

	renumber(ordered)
	applyLegs(ordered, route)
	return &routedStops{stops: ordered, route: route}, nil
}

// applyOrder permutes stops by a trip order over the routed coordinates.
// When withStart is set, index 0 of the order is the start location.
func applyOrder(stops []models.Stop, order []int, withStart bool) ([]models.Stop, error) {
	offset := 0
	if withStart {
		offset = 1
	}
	n := len(stops) + offset
	if len(order) != n {
		return nil, fmt.Errorf("trip order has %d entries, want %d: %w", len(order), n, models.ErrRoutingUnavailable)
	}
	if order[0] != 0 {
		return nil, fmt.Errorf("trip order does not begin at the origin: %w", models.ErrRoutingUnavailable)
	}

	seen := make([]bool, n)
	out := make([]models.Stop, 0, len(stops))
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return nil, fmt.Errorf("trip order is not a permutation: %w", models.ErrRoutingUnavailable)
		}
		seen[idx] = true
		if idx < offset {
			continue
		}
		out = append(out, stops[idx-offset])
	}
	return out, nil
}

// applyLegs copies leg i of the route onto stops[i]. The last stop gets no
// metrics.
func applyLegs(stops []models.Stop, route *models.RouteResult) {
	for i := range stops {
		stops[i].DistanceToNext = nil
		stops[i].TravelTimeToNext = nil
		if i == len(stops)-1 {
			continue
		}
		if i < len(route.PerLegDistanceKm) {
			stops[i].DistanceToNext = lo.ToPtr(route.PerLegDistanceKm[i])
		}
		if i < len(route.PerLegDurationMin) {
			stops[i].TravelTimeToNext = lo.ToPtr(route.PerLegDurationMin[i])
		}
	}
}
