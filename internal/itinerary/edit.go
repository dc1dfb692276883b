package itinerary

import (
	"fmt"

	"github.com/samber/lo"

	"itinerary-router/internal/models"
)

// Edits on a whole itinerary. None of them call the router: they change the
// stop layout, keep stops and days in sync and mark affected routes stale.

// MoveStopAcrossDays moves a regular stop to the end of another day
func MoveStopAcrossDays(current *models.Itinerary, fromDay, stopIndex, toDay int) (models.ItineraryPatch, error) {
	days, err := MoveStop(current.Days, fromDay, stopIndex, toDay)
	if err != nil {
		return models.ItineraryPatch{}, err
	}
	routes := current.DayRoutes
	if fromDay != toDay {
		routes = markStale(current.DayRoutes, days[fromDay].Day, days[toDay].Day)
	}
	return daysPatch(days, routes), nil
}

// ReorderStop moves a stop one position up or down. For a single-list trip
// dayIndex must be 0.
func ReorderStop(current *models.Itinerary, dayIndex, stopIndex int, dir Direction) (models.ItineraryPatch, error) {
	if !current.IsMultiDay() {
		if dayIndex != 0 {
			return models.ItineraryPatch{}, fmt.Errorf("single-list trip has no day %d: %w", dayIndex+1, models.ErrDayOutOfRange)
		}
		stops, err := ReorderStops(current.Stops, stopIndex, dir)
		if err != nil {
			return models.ItineraryPatch{}, err
		}
		return flatPatch(stops), nil
	}

	days, err := ReorderStopWithinDay(current.Days, dayIndex, stopIndex, dir)
	if err != nil {
		return models.ItineraryPatch{}, err
	}
	return daysPatch(days, markStale(current.DayRoutes, days[dayIndex].Day)), nil
}

// RemoveStop deletes a stop. A multi-day trip needs dayIndex.
func RemoveStop(current *models.Itinerary, dayIndex *int, stopIndex int) (models.ItineraryPatch, error) {
	if !current.IsMultiDay() {
		stops, err := RemoveStops(current.Stops, stopIndex)
		if err != nil {
			return models.ItineraryPatch{}, err
		}
		return flatPatch(stops), nil
	}

	if dayIndex == nil {
		return models.ItineraryPatch{}, fmt.Errorf("day is required for a multi-day trip: %w", models.ErrDayOutOfRange)
	}
	days, err := RemoveStopFromDay(current.Days, *dayIndex, stopIndex)
	if err != nil {
		return models.ItineraryPatch{}, err
	}
	return daysPatch(days, markStale(current.DayRoutes, days[*dayIndex].Day)), nil
}

// MoveDay moves a whole day to another position. Cached day routes follow
// their day to its new number.
func MoveDay(current *models.Itinerary, from, to int) (models.ItineraryPatch, error) {
	days, err := ReorderDays(current.Days, from, to)
	if err != nil {
		return models.ItineraryPatch{}, err
	}

	// positions[i] is the old index of the day now at i
	positions := lo.Range(len(current.Days))
	moved := positions[from]
	positions = append(positions[:from], positions[from+1:]...)
	positions = append(positions[:to], append([]int{moved}, positions[to:]...)...)

	routes := make(map[int]models.DayRoute, len(current.DayRoutes))
	for newIdx, oldIdx := range positions {
		if r, ok := current.DayRoutes[current.Days[oldIdx].Day]; ok {
			routes[days[newIdx].Day] = r
		}
	}
	return daysPatch(days, routes), nil
}

// SetMealTime changes the displayed time of a meal. Geometry is untouched.
func SetMealTime(current *models.Itinerary, dayIndex int, role models.MealRole, scheduledTime string) (models.ItineraryPatch, error) {
	days, err := UpdateMealTime(current.Days, dayIndex, role, scheduledTime)
	if err != nil {
		return models.ItineraryPatch{}, err
	}
	stops := Flatten(days)
	return models.ItineraryPatch{Days: &days, Stops: &stops}, nil
}

// NormalizePatch makes a client-supplied update keep stops and days in step.
// New days are regrouped and flattened into stops. New stops are only
// accepted on a single-list trip and are renumbered 1..N. A layout change
// without new geometry marks the affected routes stale.
func NormalizePatch(current *models.Itinerary, patch models.ItineraryPatch) (models.ItineraryPatch, error) {
	switch {
	case patch.Days != nil:
		days := GroupByDay(*patch.Days, nil)
		stops := Flatten(days)
		patch.Days = &days
		patch.Stops = &stops
		if patch.DayRoutes == nil && len(current.DayRoutes) > 0 {
			routes := markStale(current.DayRoutes, lo.Keys(current.DayRoutes)...)
			patch.DayRoutes = &routes
		}
	case patch.Stops != nil:
		if current.IsMultiDay() {
			return models.ItineraryPatch{}, fmt.Errorf("stops of a multi-day trip change through days: %w", ErrInvalidPatch)
		}
		stops := cloneStops(*patch.Stops)
		normalizeOrder(stops)
		clearTrailingMetrics(stops)
		patch.Stops = &stops
		if patch.Geometry == nil && patch.RouteStale == nil {
			patch.RouteStale = lo.ToPtr(true)
		}
	}
	return patch, nil
}

func daysPatch(days []models.Day, routes map[int]models.DayRoute) models.ItineraryPatch {
	stops := Flatten(days)
	patch := models.ItineraryPatch{Days: &days, Stops: &stops}
	if routes != nil {
		patch.DayRoutes = &routes
	}
	return patch
}

func flatPatch(stops []models.Stop) models.ItineraryPatch {
	return models.ItineraryPatch{Stops: &stops, RouteStale: lo.ToPtr(true)}
}
