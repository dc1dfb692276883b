// Package resolver reconciles planner suggestions with place-search results
// into canonical stops.
package resolver

import (
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

// DefaultFallbackCount is how many top-rated search results are used when
// no planner suggestion can be resolved.
const DefaultFallbackCount = 5

// ResolveStats counts what happened to the planner suggestions
type ResolveStats struct {
	Suggested     int      `json:"suggested"`
	Usable        int      `json:"usable"`
	Unresolvable  []string `json:"unresolvable,omitempty"`
	Duplicates    int      `json:"duplicates,omitempty"`
	InvalidCoords int      `json:"invalidCoords,omitempty"`
	UsedFallback  bool     `json:"usedFallback"`
}

// Dropped is the number of suggestions that did not become stops
func (s ResolveStats) Dropped() int {
	return s.Suggested - s.Usable
}

// Resolve merges planner suggestions with search results. Coordinates always
// come from the search result. Suggestions without a matching result are
// dropped. When nothing resolves, the top-rated results are used instead.
// Resolve performs no I/O.
func Resolve(suggestions []models.PlannerStop, results []models.SearchResult, fallbackCount int) ([]models.Stop, ResolveStats) {
	stats := ResolveStats{Suggested: len(suggestions)}
	byID := lo.KeyBy(lo.Filter(results, func(r models.SearchResult, _ int) bool {
		return r.ID != ""
	}), func(r models.SearchResult) string {
		return r.ID
	})

	seen := make(map[string]bool, len(suggestions))
	stops := make([]models.Stop, 0, len(suggestions))
	for i, s := range suggestions {
		result, ok := byID[s.PlaceID]
		if !ok {
			stats.Unresolvable = append(stats.Unresolvable, s.PlaceID)
			continue
		}
		if seen[s.PlaceID] {
			stats.Duplicates++
			continue
		}
		if !result.Coordinates.Valid() {
			stats.InvalidCoords++
			continue
		}
		seen[s.PlaceID] = true
		stops = append(stops, merge(s, result, i+1))
	}

	stats.Usable = len(stops)
	if len(stops) > 0 {
		return stops, stats
	}

	stats.UsedFallback = true
	return topRated(results, fallbackCount), stats
}

// merge applies planner display fields over the search result
func merge(s models.PlannerStop, r models.SearchResult, position int) models.Stop {
	stop := fromResult(r)
	if s.Name != "" {
		stop.Name = s.Name
	}
	if s.Category != "" {
		stop.Category = s.Category
	}
	stop.ScheduledTime = s.ScheduledTime
	stop.Reason = s.Reason
	stop.EstimatedDuration = s.EstimatedDuration
	stop.Day = s.Day
	stop.Date = s.Date
	stop.Order = s.Order
	if stop.Order <= 0 {
		stop.Order = position
	}
	return stop
}

func fromResult(r models.SearchResult) models.Stop {
	return models.Stop{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Coordinates: r.Coordinates,
		Rating:      r.Rating,
		Price:       r.Price,
		Photo:       r.Photo,
		Description: r.Description,
		Address:     r.Address,
		Tags:        r.Tags,
	}
}

// topRated returns the n best-rated results with valid coordinates, ordered 1..n
func topRated(results []models.SearchResult, n int) []models.Stop {
	if n <= 0 {
		n = DefaultFallbackCount
	}
	candidates := lo.UniqBy(lo.Filter(results, func(r models.SearchResult, _ int) bool {
		return r.ID != "" && r.Coordinates.Valid()
	}), func(r models.SearchResult) string {
		return r.ID
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rating > candidates[j].Rating
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}

	stops := make([]models.Stop, len(candidates))
	for i, r := range candidates {
		stops[i] = fromResult(r)
		stops[i].Order = i + 1
	}
	return stops
}

// Resolver wraps Resolve with diagnostics logging
type Resolver struct {
	FallbackCount int
	log           logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{
		FallbackCount: DefaultFallbackCount,
		log:           log.WithField("component", "resolver"),
	}
}

// Resolve resolves suggestions and logs when any were dropped
func (r *Resolver) Resolve(suggestions []models.PlannerStop, results []models.SearchResult) ([]models.Stop, ResolveStats) {
	stops, stats := Resolve(suggestions, results, r.FallbackCount)

	if stats.Dropped() > 0 {
		r.log.WithFields(logrus.Fields{
			"unresolvable":   stats.Unresolvable,
			"duplicates":     stats.Duplicates,
			"invalid_coords": stats.InvalidCoords,
		}).Infof("planner suggested %d stops, %d were usable", stats.Suggested, stats.Usable)
	}
	if stats.UsedFallback {
		r.log.WithField("stops", len(stops)).Info("no planner stops resolved, using top-rated search results")
	}
	return stops, stats
}

// ResolveDays resolves a day-structured plan. Meal slots are resolved
// independently and tagged with their meal role.
func (r *Resolver) ResolveDays(plan []models.PlannerDay, results []models.SearchResult) ([]models.Day, ResolveStats) {
	total := ResolveStats{}
	days := make([]models.Day, 0, len(plan))
	for _, pd := range plan {
		stops, stats := Resolve(pd.Stops, results, 0)
		total.Suggested += stats.Suggested
		total.Duplicates += stats.Duplicates
		total.InvalidCoords += stats.InvalidCoords
		total.Unresolvable = append(total.Unresolvable, stats.Unresolvable...)
		if stats.UsedFallback {
			// a day whose stops all failed to resolve stays empty
			stops = []models.Stop{}
		}
		total.Usable += len(stops)

		day := models.Day{Day: pd.Day, Date: pd.Date, Theme: pd.Theme, Stops: stops}
		for _, slot := range []struct {
			role models.MealRole
			ps   *models.PlannerStop
		}{{models.MealLunch, pd.Lunch}, {models.MealDinner, pd.Dinner}} {
			if slot.ps == nil {
				continue
			}
			total.Suggested++
			meal, ok := r.resolveMeal(*slot.ps, results, slot.role)
			if !ok {
				total.Unresolvable = append(total.Unresolvable, slot.ps.PlaceID)
				continue
			}
			total.Usable++
			if day.Meals == nil {
				day.Meals = &models.Meals{}
			}
			if slot.role == models.MealLunch {
				day.Meals.Lunch = meal
			} else {
				day.Meals.Dinner = meal
			}
		}
		days = append(days, day)
	}

	if total.Dropped() > 0 {
		r.log.WithFields(logrus.Fields{
			"days":         len(plan),
			"unresolvable": total.Unresolvable,
		}).Infof("planner suggested %d stops, %d were usable", total.Suggested, total.Usable)
	}
	return days, total
}

func (r *Resolver) resolveMeal(ps models.PlannerStop, results []models.SearchResult, role models.MealRole) (*models.Stop, bool) {
	for _, res := range results {
		if res.ID == ps.PlaceID && res.Coordinates.Valid() {
			stop := merge(ps, res, 1)
			stop.MealRole = role
			return &stop, true
		}
	}
	return nil, false
}
