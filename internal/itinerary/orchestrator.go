package itinerary

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

// Orchestrator runs user-triggered re-optimizations. Each operation takes
// the current itinerary and returns the fields to replace; on failure it
// returns an *OperationError and nothing should be written.
type Orchestrator struct {
	builder *Builder
	log     logrus.FieldLogger
}

func NewOrchestrator(builder *Builder, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Orchestrator{builder: builder, log: log.WithField("component", "itinerary")}
}

// Builder exposes the underlying builder
func (o *Orchestrator) Builder() *Builder {
	return o.builder
}

func modeOr(mode, fallback models.TravelMode) models.TravelMode {
	if mode != "" {
		return mode
	}
	return fallback
}

// ReoptimizeWholeTrip re-orders the existing stop set. A single-list trip is
// rebuilt from its start location. A multi-day trip has every day with at
// least two stops optimized independently; the trip totals become the sum of
// the day routes.
func (o *Orchestrator) ReoptimizeWholeTrip(ctx context.Context, current *models.Itinerary, mode models.TravelMode) (models.ItineraryPatch, error) {
	mode = modeOr(mode, current.Mode)
	log := o.log.WithFields(logrus.Fields{"session_id": current.SessionID, "mode": mode})

	if current.IsMultiDay() {
		patch, err := o.optimizeAllDays(ctx, current, mode)
		if err != nil {
			log.WithError(err).Warn("optimize route failed")
			return models.ItineraryPatch{}, &OperationError{Op: OpOptimizeRoute, Err: err}
		}
		return patch, nil
	}

	if current.Start == nil {
		return models.ItineraryPatch{}, &OperationError{
			Op:  OpOptimizeRoute,
			Err: fmt.Errorf("no start location: %w", models.ErrInvalidCoordinates),
		}
	}

	built, err := o.builder.Build(ctx, *current.Start, current.Stops, mode)
	if err != nil {
		log.WithError(err).Warn("optimize route failed")
		return models.ItineraryPatch{}, &OperationError{Op: OpOptimizeRoute, Err: err}
	}

	return models.ItineraryPatch{
		Mode:             &mode,
		Stops:            &built.Stops,
		TotalDistanceKm:  &built.TotalDistanceKm,
		TotalDurationMin: &built.TotalDurationMin,
		Geometry:         &built.Geometry,
		Instructions:     &built.Instructions,
		RouteStale:       lo.ToPtr(false),
	}, nil
}

func (o *Orchestrator) optimizeAllDays(ctx context.Context, current *models.Itinerary, mode models.TravelMode) (models.ItineraryPatch, error) {
	days := cloneDays(current.Days)
	routes := copyRoutes(current.DayRoutes)

	var total models.DayRoute
	optimized := 0
	for i := range days {
		if len(o.builder.routable(days[i].Stops)) < 2 {
			continue
		}
		next, route, err := o.builder.OptimizeDay(ctx, days, i, mode)
		if err != nil {
			return models.ItineraryPatch{}, fmt.Errorf("day %d: %w", i+1, err)
		}
		days = next
		routes[days[i].Day] = route
		optimized++

		total.TotalDistanceKm += route.TotalDistanceKm
		total.TotalDurationMin += route.TotalDurationMin
		total.Geometry = append(total.Geometry, route.Geometry...)
		total.Instructions = append(total.Instructions, route.Instructions...)
	}
	if optimized == 0 {
		return models.ItineraryPatch{}, fmt.Errorf("no day has two routable stops: %w", models.ErrInsufficientStops)
	}
	if total.Geometry == nil {
		total.Geometry = []models.Coordinates{}
	}

	stops := Flatten(days)
	return models.ItineraryPatch{
		Mode:             &mode,
		Stops:            &stops,
		Days:             &days,
		DayRoutes:        &routes,
		TotalDistanceKm:  &total.TotalDistanceKm,
		TotalDurationMin: &total.TotalDurationMin,
		Geometry:         &total.Geometry,
		Instructions:     &total.Instructions,
		RouteStale:       lo.ToPtr(false),
	}, nil
}

// BuildDays creates a multi-day itinerary and routes every day that has at
// least two stops. A trip where no day can be routed is returned unrouted
// with RouteStale set.
func (o *Orchestrator) BuildDays(ctx context.Context, start models.Coordinates, days []models.Day, mode models.TravelMode) (*models.Itinerary, error) {
	if !start.Valid() {
		return nil, fmt.Errorf("start location: %w", models.ErrInvalidCoordinates)
	}
	it := &models.Itinerary{
		Start:     &start,
		Mode:      mode,
		Days:      days,
		Stops:     Flatten(days),
		Geometry:  []models.Coordinates{},
		DayRoutes: map[int]models.DayRoute{},
	}

	patch, err := o.optimizeAllDays(ctx, it, mode)
	switch {
	case errors.Is(err, models.ErrInsufficientStops):
		it.RouteStale = true
		return it, nil
	case err != nil:
		o.log.WithError(err).Warn("optimize route failed")
		return nil, &OperationError{Op: OpOptimizeRoute, Err: err}
	}

	patch.Apply(it)
	o.log.WithFields(logrus.Fields{"days": len(it.Days), "stops": len(it.Stops)}).Info("multi-day itinerary built")
	return it, nil
}

// ReoptimizeOneDay re-orders one day. Only that day and its cached route change.
func (o *Orchestrator) ReoptimizeOneDay(ctx context.Context, current *models.Itinerary, dayIndex int, mode models.TravelMode) (models.ItineraryPatch, error) {
	mode = modeOr(mode, current.Mode)
	days, route, err := o.builder.OptimizeDay(ctx, current.Days, dayIndex, mode)
	if err != nil {
		o.log.WithFields(logrus.Fields{
			"session_id": current.SessionID,
			"day":        dayIndex + 1,
		}).WithError(err).Warn("optimize day failed")
		return models.ItineraryPatch{}, &OperationError{Op: OpOptimizeDay, Day: dayIndex + 1, Err: err}
	}

	routes := copyRoutes(current.DayRoutes)
	routes[days[dayIndex].Day] = route
	stops := Flatten(days)
	return models.ItineraryPatch{
		Stops:     &stops,
		Days:      &days,
		DayRoutes: &routes,
	}, nil
}

func copyRoutes(in map[int]models.DayRoute) map[int]models.DayRoute {
	out := make(map[int]models.DayRoute, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// markStale flags the cached routes of the given day numbers
func markStale(routes map[int]models.DayRoute, dayNums ...int) map[int]models.DayRoute {
	out := copyRoutes(routes)
	for _, n := range dayNums {
		if r, ok := out[n]; ok {
			r.Stale = true
			out[n] = r
		}
	}
	return out
}

// Apply returns a copy of current with the patch merged in
func Apply(current *models.Itinerary, patch models.ItineraryPatch) *models.Itinerary {
	next := *current
	patch.Apply(&next)
	return &next
}
