package itinerary

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
	"itinerary-router/internal/places"
	"itinerary-router/internal/planner"
	"itinerary-router/internal/resolver"
)

const (
	defaultSearchRadiusM = 5000
	defaultSearchLimit   = 30
)

// TripRequest is the input of a planning session
type TripRequest struct {
	Location    models.Coordinates
	Preferences models.TripPreferences
	Mode        models.TravelMode
}

// TripPlanner creates the first itinerary of a session: it discovers places,
// asks the planner to arrange them, resolves the answer against the search
// results and routes the outcome.
type TripPlanner struct {
	places   places.Searcher
	planner  planner.Planner
	resolver *resolver.Resolver
	orch     *Orchestrator
	log      logrus.FieldLogger
}

// NewTripPlanner wires a trip planner. ai may be nil, in which case every
// plan is the top-rated ranking of the search results.
func NewTripPlanner(search places.Searcher, ai planner.Planner, res *resolver.Resolver, orch *Orchestrator, log logrus.FieldLogger) *TripPlanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TripPlanner{
		places:   search,
		planner:  ai,
		resolver: res,
		orch:     orch,
		log:      log.WithField("component", "itinerary"),
	}
}

func (p *TripPlanner) PlanTrip(ctx context.Context, req TripRequest) (*models.Itinerary, error) {
	if !req.Location.Valid() {
		return nil, fmt.Errorf("location: %w", models.ErrInvalidCoordinates)
	}
	prefs := req.Preferences
	mode := modeOr(modeOr(req.Mode, prefs.Transport), models.ModeWalking)

	results, err := p.places.Search(ctx, searchRequest(req.Location, prefs))
	if err != nil {
		return nil, fmt.Errorf("search places: %w", err)
	}
	log := p.log.WithFields(logrus.Fields{"candidates": len(results), "mode": mode})

	plan := p.askPlanner(ctx, req, results, log)

	var days []models.Day
	if plan != nil && len(plan.Days) > 0 {
		var stats resolver.ResolveStats
		days, stats = p.resolver.ResolveDays(plan.Days, results)
		days = GroupByDay(days, nil)
		if stats.Usable == 0 {
			log.Warn("no planned day resolved, falling back to top-rated places")
			stops, _ := p.resolver.Resolve(nil, results)
			days = GroupByDay(nil, stops)
		}
	} else {
		var suggestions []models.PlannerStop
		if plan != nil {
			suggestions = plan.Stops
		}
		stops, _ := p.resolver.Resolve(suggestions, results)
		days = GroupByDay(nil, stops)
	}

	if len(days) > 1 {
		return p.orch.BuildDays(ctx, req.Location, days, mode)
	}

	var stops []models.Stop
	if len(days) == 1 {
		stops = Flatten(days)
	}
	it, err := p.orch.Builder().Build(ctx, req.Location, stops, mode)
	if err != nil {
		return nil, &OperationError{Op: OpOptimizeRoute, Err: err}
	}
	log.WithField("stops", len(it.Stops)).Info("trip planned")
	return it, nil
}

// askPlanner returns nil when there is no planner or it failed
func (p *TripPlanner) askPlanner(ctx context.Context, req TripRequest, results []models.SearchResult, log logrus.FieldLogger) *models.PlannerPlan {
	if p.planner == nil || len(results) == 0 {
		return nil
	}
	plan, err := p.planner.Plan(ctx, planner.PlanRequest{
		Location:    req.Location,
		Preferences: req.Preferences,
		Candidates:  results,
	})
	if err != nil {
		log.WithError(err).Warn("planner failed, falling back to top-rated places")
		return nil
	}
	return plan
}

func searchRequest(center models.Coordinates, prefs models.TripPreferences) places.SearchRequest {
	radius := prefs.RadiusM
	if radius <= 0 {
		radius = defaultSearchRadiusM
	}
	limit := prefs.MaxResults
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return places.SearchRequest{
		Center:     center,
		Query:      strings.Join(prefs.Interests, " "),
		Categories: places.CategoryIDs(prefs.Interests, prefs.Categories),
		RadiusM:    radius,
		Limit:      limit,
		Sort:       "RELEVANCE",
	}
}
