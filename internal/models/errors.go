package models

import "errors"

var (
	// ErrInvalidCoordinates is returned for non-finite or (0,0) coordinates
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInsufficientStops is returned when an ordering operation gets fewer than 2 routable stops
	ErrInsufficientStops = errors.New("insufficient stops")

	// ErrRoutingUnavailable is returned when the routing provider is unreachable or keeps failing
	ErrRoutingUnavailable = errors.New("routing unavailable")

	// ErrNoRouteFound is returned when the routing provider answers but has no usable route
	ErrNoRouteFound = errors.New("no route found")

	// ErrUnresolvableStop marks a planner stop that matches no search result
	ErrUnresolvableStop = errors.New("unresolvable stop")

	ErrDayOutOfRange  = errors.New("day out of range")
	ErrStopOutOfRange = errors.New("stop out of range")
)
