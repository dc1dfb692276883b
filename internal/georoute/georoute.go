// Package georoute queries a road-routing engine for visiting orders,
// route geometry and turn-by-turn instructions.
package georoute

import (
	"context"
	"errors"
	"fmt"

	"itinerary-router/internal/models"
)

// RouteClient issues the two routing query families used by the itinerary core
type RouteClient interface {
	// ComputeOrderedRoute returns geometry, totals and per-leg metrics for
	// coordinates that are already in visiting order (first is the start).
	ComputeOrderedRoute(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.RouteResult, error)

	// OptimizeOrder returns the best visiting order with the first point
	// pinned as source and the last pinned as destination, without a return leg.
	OptimizeOrder(ctx context.Context, coords []models.Coordinates, mode models.TravelMode) (*models.TripOrder, error)
}

// UpstreamError describes a failed routing query. It unwraps to
// models.ErrRoutingUnavailable or models.ErrNoRouteFound.
type UpstreamError struct {
	Op      string
	Status  int
	Code    string
	Message string
	Kind    error
	Cause   error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" code=%s", e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsRoutingFailure reports whether err is one of the upstream routing failures
func IsRoutingFailure(err error) bool {
	return errors.Is(err, models.ErrRoutingUnavailable) || errors.Is(err, models.ErrNoRouteFound)
}

func validateCoords(coords []models.Coordinates) error {
	if len(coords) < 2 {
		return fmt.Errorf("need at least 2 coordinates, got %d: %w", len(coords), models.ErrInsufficientStops)
	}
	for i, c := range coords {
		if !c.Valid() {
			return fmt.Errorf("coordinate %d (%v,%v): %w", i, c.Lat, c.Lng, models.ErrInvalidCoordinates)
		}
	}
	return nil
}
