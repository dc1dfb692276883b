package itinerary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

// dateLayouts are the date formats accepted as grouping keys
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
}

// ParseDate normalizes a date-like string to an ISO date
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

type groupKey struct {
	num  int
	date string
}

func (k groupKey) less(o groupKey) bool {
	// numeric keys sort before date keys
	if (k.date == "") != (o.date == "") {
		return k.date == ""
	}
	if k.date != "" {
		return k.date < o.date
	}
	return k.num < o.num
}

func keyFor(s models.Stop) groupKey {
	if s.Day > 0 {
		return groupKey{num: s.Day}
	}
	if d, ok := ParseDate(s.Date); ok {
		return groupKey{date: d}
	}
	return groupKey{num: 1}
}

// GroupByDay partitions stops into days. An explicit day structure is used
// as given, relabelled 1..N. Otherwise each stop is keyed by its numeric day,
// then its date, then day 1. Meal-tagged stops fill their day's meal slot.
func GroupByDay(explicit []models.Day, flat []models.Stop) []models.Day {
	if len(explicit) > 0 {
		days := cloneDays(explicit)
		sort.SliceStable(days, func(i, j int) bool { return days[i].Day < days[j].Day })
		for i := range days {
			normalizeOrder(days[i].Stops)
		}
		relabel(days)
		return days
	}
	if len(flat) == 0 {
		return []models.Day{}
	}

	groups := map[groupKey]*models.Day{}
	var keys []groupKey
	for _, s := range cloneStops(flat) {
		k := keyFor(s)
		day, ok := groups[k]
		if !ok {
			day = &models.Day{Date: k.date, Stops: []models.Stop{}}
			groups[k] = day
			keys = append(keys, k)
		}
		if s.MealRole != "" && placeMeal(day, s) {
			continue
		}
		day.Stops = append(day.Stops, s)
	}

	sort.SliceStable(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	days := make([]models.Day, 0, len(keys))
	for _, k := range keys {
		day := groups[k]
		normalizeOrder(day.Stops)
		days = append(days, *day)
	}
	relabel(days)
	return days
}

// placeMeal puts s into its free meal slot and reports whether it did
func placeMeal(day *models.Day, s models.Stop) bool {
	if day.Meals == nil {
		day.Meals = &models.Meals{}
	}
	switch s.MealRole {
	case models.MealLunch:
		if day.Meals.Lunch == nil {
			day.Meals.Lunch = &s
			return true
		}
	case models.MealDinner:
		if day.Meals.Dinner == nil {
			day.Meals.Dinner = &s
			return true
		}
	}
	return false
}

// normalizeOrder sorts stops by their advisory order and renumbers them 1..N
func normalizeOrder(stops []models.Stop) {
	sort.SliceStable(stops, func(i, j int) bool {
		a, b := stops[i].Order, stops[j].Order
		if a <= 0 || b <= 0 {
			return a > 0 && b <= 0
		}
		return a < b
	})
	renumber(stops)
}

// renumber assigns order 1..N in slice order
func renumber(stops []models.Stop) {
	for i := range stops {
		stops[i].Order = i + 1
	}
}

// relabel numbers days 1..N in slice order and keeps stop day hints in step
func relabel(days []models.Day) {
	for i := range days {
		days[i].Day = i + 1
		for j := range days[i].Stops {
			days[i].Stops[j].Day = i + 1
		}
		if m := days[i].Meals; m != nil {
			if m.Lunch != nil {
				m.Lunch.Day = i + 1
			}
			if m.Dinner != nil {
				m.Dinner.Day = i + 1
			}
		}
	}
}

// clearTrailingMetrics drops the leg metrics of the last stop
func clearTrailingMetrics(stops []models.Stop) {
	if n := len(stops); n > 0 {
		stops[n-1].DistanceToNext = nil
		stops[n-1].TravelTimeToNext = nil
	}
}

// Flatten projects days onto one ordered stop list: each day's regular stops
// followed by its lunch and dinner. Order is renumbered 1..N across the trip.
func Flatten(days []models.Day) []models.Stop {
	out := []models.Stop{}
	for _, d := range days {
		for _, s := range d.Stops {
			s.Day = d.Day
			out = append(out, s)
		}
		if d.Meals != nil {
			for _, m := range []*models.Stop{d.Meals.Lunch, d.Meals.Dinner} {
				if m != nil {
					s := *m
					s.Day = d.Day
					out = append(out, s)
				}
			}
		}
	}
	renumber(out)
	return out
}

func checkDay(days []models.Day, dayIndex int) error {
	if dayIndex < 0 || dayIndex >= len(days) {
		return fmt.Errorf("day %d of %d: %w", dayIndex+1, len(days), models.ErrDayOutOfRange)
	}
	return nil
}

func checkStop(stops []models.Stop, stopIndex int) error {
	if stopIndex < 0 || stopIndex >= len(stops) {
		return fmt.Errorf("stop %d of %d: %w", stopIndex, len(stops), models.ErrStopOutOfRange)
	}
	return nil
}

// OptimizeDay re-orders and re-routes one day, anchored at its own first
// stop. Meals are not routed. Other days are returned unchanged.
func (b *Builder) OptimizeDay(ctx context.Context, days []models.Day, dayIndex int, mode models.TravelMode) ([]models.Day, models.DayRoute, error) {
	if err := checkDay(days, dayIndex); err != nil {
		return nil, models.DayRoute{}, err
	}

	routable := b.routable(days[dayIndex].Stops)
	if len(routable) < 2 {
		return nil, models.DayRoute{}, fmt.Errorf("day %d has %d routable stops: %w", dayIndex+1, len(routable), models.ErrInsufficientStops)
	}

	res, err := b.orderAndRoute(ctx, nil, routable, mode)
	if err != nil {
		return nil, models.DayRoute{}, err
	}

	out := cloneDays(days)
	for i := range res.stops {
		res.stops[i].Day = out[dayIndex].Day
	}
	out[dayIndex].Stops = res.stops

	b.log.WithFields(logrus.Fields{
		"day":   dayIndex + 1,
		"stops": len(res.stops),
		"km":    fmt.Sprintf("%.2f", res.route.TotalDistanceKm),
	}).Info("day optimized")

	return out, models.DayRoute{
		TotalDistanceKm:  res.route.TotalDistanceKm,
		TotalDurationMin: res.route.TotalDurationMin,
		Geometry:         res.route.Geometry,
		Instructions:     res.route.PerLegInstructions,
	}, nil
}

// MoveStop removes a regular stop from one day and appends it to another.
// Both days are renumbered. Nothing is re-routed.
func MoveStop(days []models.Day, fromDay, stopIndex, toDay int) ([]models.Day, error) {
	if err := checkDay(days, fromDay); err != nil {
		return nil, err
	}
	if err := checkDay(days, toDay); err != nil {
		return nil, err
	}
	if err := checkStop(days[fromDay].Stops, stopIndex); err != nil {
		return nil, err
	}

	out := cloneDays(days)
	if fromDay == toDay {
		return out, nil
	}

	src := out[fromDay].Stops
	moved := src[stopIndex]
	out[fromDay].Stops = append(src[:stopIndex:stopIndex], src[stopIndex+1:]...)

	moved.Day = out[toDay].Day
	out[toDay].Stops = append(out[toDay].Stops, moved)

	renumber(out[fromDay].Stops)
	renumber(out[toDay].Stops)
	clearTrailingMetrics(out[fromDay].Stops)
	clearTrailingMetrics(out[toDay].Stops)
	return out, nil
}

// Direction is a one-step move within a day
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ReorderStops swaps a stop with its neighbour and renumbers. Nothing is re-routed.
func ReorderStops(stops []models.Stop, stopIndex int, dir Direction) ([]models.Stop, error) {
	if err := checkStop(stops, stopIndex); err != nil {
		return nil, err
	}
	var target int
	switch dir {
	case DirectionUp:
		target = stopIndex - 1
	case DirectionDown:
		target = stopIndex + 1
	default:
		return nil, fmt.Errorf("direction %q: %w", dir, ErrInvalidDirection)
	}
	if target < 0 || target >= len(stops) {
		return nil, fmt.Errorf("cannot move stop %d %s: %w", stopIndex, dir, models.ErrStopOutOfRange)
	}

	out := cloneStops(stops)
	out[stopIndex], out[target] = out[target], out[stopIndex]
	renumber(out)
	clearTrailingMetrics(out)
	return out, nil
}

// ReorderStopWithinDay moves one regular stop up or down within its day
func ReorderStopWithinDay(days []models.Day, dayIndex, stopIndex int, dir Direction) ([]models.Day, error) {
	if err := checkDay(days, dayIndex); err != nil {
		return nil, err
	}
	stops, err := ReorderStops(days[dayIndex].Stops, stopIndex, dir)
	if err != nil {
		return nil, err
	}
	out := cloneDays(days)
	out[dayIndex].Stops = stops
	return out, nil
}

// RemoveStops deletes one stop and renumbers the rest
func RemoveStops(stops []models.Stop, stopIndex int) ([]models.Stop, error) {
	if err := checkStop(stops, stopIndex); err != nil {
		return nil, err
	}
	out := cloneStops(stops)
	out = append(out[:stopIndex], out[stopIndex+1:]...)
	renumber(out)
	clearTrailingMetrics(out)
	return out, nil
}

// RemoveStopFromDay deletes one regular stop of a day
func RemoveStopFromDay(days []models.Day, dayIndex, stopIndex int) ([]models.Day, error) {
	if err := checkDay(days, dayIndex); err != nil {
		return nil, err
	}
	stops, err := RemoveStops(days[dayIndex].Stops, stopIndex)
	if err != nil {
		return nil, err
	}
	out := cloneDays(days)
	out[dayIndex].Stops = stops
	return out, nil
}

// ReorderDays moves the day at from to position to and renumbers all days
func ReorderDays(days []models.Day, from, to int) ([]models.Day, error) {
	if err := checkDay(days, from); err != nil {
		return nil, err
	}
	if err := checkDay(days, to); err != nil {
		return nil, err
	}
	out := cloneDays(days)
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]models.Day{moved}, out[to:]...)...)
	relabel(out)
	return out, nil
}

// UpdateMealTime sets the scheduled time of a meal slot
func UpdateMealTime(days []models.Day, dayIndex int, role models.MealRole, scheduledTime string) ([]models.Day, error) {
	if err := checkDay(days, dayIndex); err != nil {
		return nil, err
	}
	if role != models.MealLunch && role != models.MealDinner {
		return nil, fmt.Errorf("meal %q: %w", role, ErrUnknownMeal)
	}
	out := cloneDays(days)
	meal := out[dayIndex].Meals.Slot(role)
	if meal == nil {
		return nil, fmt.Errorf("day %d has no %s: %w", dayIndex+1, role, ErrUnknownMeal)
	}
	meal.ScheduledTime = strings.TrimSpace(scheduledTime)
	return out, nil
}

func cloneStops(stops []models.Stop) []models.Stop {
	if stops == nil {
		return nil
	}
	out := make([]models.Stop, len(stops))
	copy(out, stops)
	return out
}

func cloneDays(days []models.Day) []models.Day {
	if days == nil {
		return nil
	}
	out := make([]models.Day, len(days))
	for i, d := range days {
		out[i] = d
		out[i].Stops = cloneStops(d.Stops)
		if out[i].Stops == nil {
			out[i].Stops = []models.Stop{}
		}
		if d.Meals != nil {
			m := models.Meals{}
			if d.Meals.Lunch != nil {
				lunch := *d.Meals.Lunch
				m.Lunch = &lunch
			}
			if d.Meals.Dinner != nil {
				dinner := *d.Meals.Dinner
				m.Dinner = &dinner
			}
			out[i].Meals = &m
		}
	}
	return out
}
