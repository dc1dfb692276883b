package resolver

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinerary-router/internal/models"
)

func searchResults() []models.SearchResult {
	return []models.SearchResult{
		{ID: "p1", Name: "Cafe Raw", Category: "Cafe", Coordinates: models.Coordinates{Lat: 12.9, Lng: 77.6}, Rating: 8.1, Photo: "raw.jpg"},
		{ID: "p2", Name: "Lalbagh", Category: "Park", Coordinates: models.Coordinates{Lat: 12.95, Lng: 77.58}, Rating: 9.2},
		{ID: "p3", Name: "Null Island Bar", Category: "Bar", Coordinates: models.Coordinates{Lat: 0, Lng: 0}, Rating: 9.9},
		{ID: "p4", Name: "Museum", Category: "Museum", Coordinates: models.Coordinates{Lat: 12.97, Lng: 77.59}, Rating: 7.5},
		{ID: "p5", Name: "Broken", Category: "Shop", Coordinates: models.Coordinates{Lat: math.NaN(), Lng: 77.59}, Rating: 9.5},
	}
}

func TestResolveMergePrecedence(t *testing.T) {
	suggestions := []models.PlannerStop{{
		PlaceID:       "p1",
		Name:          "Best Coffee Spot",
		Order:         2,
		ScheduledTime: "9:00 AM",
		Reason:        "Great espresso",
	}}

	stops, stats := Resolve(suggestions, searchResults(), DefaultFallbackCount)

	require.Len(t, stops, 1)
	s := stops[0]
	assert.Equal(t, "p1", s.ID)
	assert.Equal(t, "Best Coffee Spot", s.Name)
	assert.Equal(t, models.Coordinates{Lat: 12.9, Lng: 77.6}, s.Coordinates)
	assert.Equal(t, 2, s.Order)
	assert.Equal(t, "9:00 AM", s.ScheduledTime)
	assert.Equal(t, "Great espresso", s.Reason)
	assert.Equal(t, "Cafe", s.Category, "search category is kept when the planner gives none")
	assert.Equal(t, "raw.jpg", s.Photo)
	assert.Equal(t, 8.1, s.Rating)
	assert.False(t, stats.UsedFallback)
}

func TestResolvePlannerCategoryWins(t *testing.T) {
	stops, _ := Resolve([]models.PlannerStop{{PlaceID: "p1", Category: "Restaurant"}}, searchResults(), 5)
	require.Len(t, stops, 1)
	assert.Equal(t, "Restaurant", stops[0].Category)
	assert.Equal(t, "Cafe Raw", stops[0].Name)
	assert.Equal(t, 1, stops[0].Order, "missing planner order falls back to position")
}

func TestResolveDropsUnresolvableStop(t *testing.T) {
	suggestions := []models.PlannerStop{
		{PlaceID: "p2", Order: 1},
		{PlaceID: "ghost", Name: "Imaginary Place", Order: 2},
		{PlaceID: "p4", Order: 3},
	}

	stops, stats := Resolve(suggestions, searchResults(), 5)

	ids := []string{}
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"p2", "p4"}, ids)
	assert.Equal(t, []string{"ghost"}, stats.Unresolvable)
	assert.Equal(t, 3, stats.Suggested)
	assert.Equal(t, 2, stats.Usable)
	assert.Equal(t, 1, stats.Dropped())
}

func TestResolveFiltersInvalidCoordinates(t *testing.T) {
	suggestions := []models.PlannerStop{{PlaceID: "p3"}, {PlaceID: "p5"}, {PlaceID: "p2"}}

	stops, stats := Resolve(suggestions, searchResults(), 5)

	require.Len(t, stops, 1)
	assert.Equal(t, "p2", stops[0].ID)
	assert.Equal(t, 2, stats.InvalidCoords)
}

func TestResolveDeduplicates(t *testing.T) {
	stops, stats := Resolve([]models.PlannerStop{{PlaceID: "p2"}, {PlaceID: "p2"}}, searchResults(), 5)
	assert.Len(t, stops, 1)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestResolveFallback(t *testing.T) {
	tests := []struct {
		name        string
		suggestions []models.PlannerStop
	}{
		{"no suggestions", nil},
		{"all unresolvable", []models.PlannerStop{{PlaceID: "ghost"}, {PlaceID: "phantom"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stops, stats := Resolve(tt.suggestions, searchResults(), 2)

			assert.True(t, stats.UsedFallback)
			require.Len(t, stops, 2)
			assert.Equal(t, "p2", stops[0].ID, "highest rated valid result first")
			assert.Equal(t, "p1", stops[1].ID)
			assert.Equal(t, 1, stops[0].Order)
			assert.Equal(t, 2, stops[1].Order)
			assert.Empty(t, stops[0].Reason)
		})
	}
}

func TestResolveFallbackNeverIncludesInvalidCoordinates(t *testing.T) {
	stops, _ := Resolve(nil, searchResults(), 10)
	for _, s := range stops {
		assert.True(t, s.Coordinates.Valid(), "stop %s", s.ID)
	}
	assert.Len(t, stops, 3)
}

func TestResolverLogsDroppedSuggestions(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger)

	_, stats := r.Resolve([]models.PlannerStop{{PlaceID: "p1"}, {PlaceID: "ghost"}}, searchResults())
	assert.Equal(t, 1, stats.Dropped())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "planner suggested 2 stops, 1 were usable", entry.Message)
	assert.Equal(t, "resolver", entry.Data["component"])
}

func TestResolverQuietWhenEverythingResolves(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := New(logger)

	r.Resolve([]models.PlannerStop{{PlaceID: "p1"}}, searchResults())
	assert.Empty(t, hook.AllEntries())
}

func TestResolveDays(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := New(logger)

	plan := []models.PlannerDay{
		{
			Day:   1,
			Theme: "Gardens",
			Stops: []models.PlannerStop{{PlaceID: "p2", Order: 1}, {PlaceID: "ghost", Order: 2}},
			Lunch: &models.PlannerStop{PlaceID: "p1", ScheduledTime: "1:00 PM"},
		},
		{
			Day:    2,
			Stops:  []models.PlannerStop{{PlaceID: "p4", Order: 1}},
			Dinner: &models.PlannerStop{PlaceID: "nowhere"},
		},
	}

	days, stats := r.ResolveDays(plan, searchResults())

	require.Len(t, days, 2)
	assert.Equal(t, "Gardens", days[0].Theme)
	require.Len(t, days[0].Stops, 1)
	assert.Equal(t, "p2", days[0].Stops[0].ID)
	require.NotNil(t, days[0].Meals)
	require.NotNil(t, days[0].Meals.Lunch)
	assert.Equal(t, models.MealLunch, days[0].Meals.Lunch.MealRole)
	assert.Equal(t, "1:00 PM", days[0].Meals.Lunch.ScheduledTime)
	assert.Nil(t, days[1].Meals)

	assert.Equal(t, 5, stats.Suggested)
	assert.Equal(t, 3, stats.Usable)
	assert.ElementsMatch(t, []string{"ghost", "nowhere"}, stats.Unresolvable)
}
