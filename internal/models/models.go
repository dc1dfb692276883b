package models

import (
	"encoding/json"
	"math"
	"time"
)

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point is finite, in range and not the (0,0) placeholder
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// TravelMode is the routing profile requested by the user
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
	ModeCycling TravelMode = "cycling"
)

// MealRole tags a stop that fills a meal slot
type MealRole string

const (
	MealLunch  MealRole = "lunch"
	MealDinner MealRole = "dinner"
)

// Stop is one visitable point of an itinerary
type Stop struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Category          string      `json:"category,omitempty"`
	Coordinates       Coordinates `json:"coordinates"`
	Order             int         `json:"order"`
	EstimatedDuration int         `json:"estimatedDuration,omitempty"`
	ScheduledTime     string      `json:"scheduledTime,omitempty"`
	TravelTimeToNext  *float64    `json:"travelTimeToNext,omitempty"`
	DistanceToNext    *float64    `json:"distanceToNext,omitempty"`
	Reason            string      `json:"reason,omitempty"`
	Rating            float64     `json:"rating,omitempty"`
	Price             string      `json:"price,omitempty"`
	Photo             string      `json:"photo,omitempty"`
	Description       string      `json:"description,omitempty"`
	Tags              []string    `json:"tags,omitempty"`
	Address           string      `json:"address,omitempty"`

	// Day and Date are grouping hints carried by flat stop lists
	Day  int    `json:"day,omitempty"`
	Date string `json:"date,omitempty"`

	MealRole MealRole `json:"mealRole,omitempty"`
}

// Meals holds the optional meal slots of a day
type Meals struct {
	Lunch  *Stop `json:"lunch,omitempty"`
	Dinner *Stop `json:"dinner,omitempty"`
}

// Slot returns the meal stop for a role
func (m *Meals) Slot(role MealRole) *Stop {
	if m == nil {
		return nil
	}
	switch role {
	case MealLunch:
		return m.Lunch
	case MealDinner:
		return m.Dinner
	}
	return nil
}

// Day is one day of a multi-day trip
type Day struct {
	Day   int    `json:"day"`
	Date  string `json:"date,omitempty"`
	Theme string `json:"theme,omitempty"`
	Stops []Stop `json:"stops"`
	Meals *Meals `json:"meals,omitempty"`
}

// RouteResult is the normalized output of a route query
type RouteResult struct {
	Order              []int         `json:"order"`
	TotalDistanceKm    float64       `json:"totalDistanceKm"`
	TotalDurationMin   float64       `json:"totalDurationMin"`
	Geometry           []Coordinates `json:"geometry"`
	PerLegDistanceKm   []float64     `json:"perLegDistanceKm"`
	PerLegDurationMin  []float64     `json:"perLegDurationMin"`
	PerLegInstructions [][]string    `json:"perLegInstructions"`
}

// TripOrder is the normalized output of a trip (order optimization) query
type TripOrder struct {
	Order            []int   `json:"order"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalDurationMin float64 `json:"totalDurationMin"`
}

// DayRoute caches the computed route of one day
type DayRoute struct {
	TotalDistanceKm  float64       `json:"totalDistanceKm"`
	TotalDurationMin float64       `json:"totalDurationMin"`
	Geometry         []Coordinates `json:"geometry"`
	Instructions     [][]string    `json:"instructions,omitempty"`
	Stale            bool          `json:"stale"`
}

// Itinerary is the persisted state of one planning session
type Itinerary struct {
	SessionID        string           `json:"sessionId"`
	Start            *Coordinates     `json:"start,omitempty"`
	Mode             TravelMode       `json:"mode,omitempty"`
	Stops            []Stop           `json:"stops"`
	TotalDistanceKm  float64          `json:"totalDistanceKm"`
	TotalDurationMin float64          `json:"totalDurationMin"`
	Geometry         []Coordinates    `json:"geometry"`
	Instructions     [][]string       `json:"instructions,omitempty"`
	RouteStale       bool             `json:"routeStale"`
	Days             []Day            `json:"days,omitempty"`
	DayRoutes        map[int]DayRoute `json:"dayRoutes,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// IsMultiDay reports whether the days structure is the source of truth
func (it *Itinerary) IsMultiDay() bool {
	return len(it.Days) > 0
}

// ItineraryPatch is a partial update; nil fields keep their stored value
type ItineraryPatch struct {
	Start            *Coordinates      `json:"start,omitempty"`
	Mode             *TravelMode       `json:"mode,omitempty"`
	Stops            *[]Stop           `json:"stops,omitempty"`
	TotalDistanceKm  *float64          `json:"totalDistanceKm,omitempty"`
	TotalDurationMin *float64          `json:"totalDurationMin,omitempty"`
	Geometry         *[]Coordinates    `json:"geometry,omitempty"`
	Instructions     *[][]string       `json:"instructions,omitempty"`
	RouteStale       *bool             `json:"routeStale,omitempty"`
	Days             *[]Day            `json:"days,omitempty"`
	DayRoutes        *map[int]DayRoute `json:"dayRoutes,omitempty"`
}

// Apply merges the non-nil patch fields into it
func (p ItineraryPatch) Apply(it *Itinerary) {
	if p.Start != nil {
		start := *p.Start
		it.Start = &start
	}
	if p.Mode != nil {
		it.Mode = *p.Mode
	}
	if p.Stops != nil {
		it.Stops = *p.Stops
	}
	if p.TotalDistanceKm != nil {
		it.TotalDistanceKm = *p.TotalDistanceKm
	}
	if p.TotalDurationMin != nil {
		it.TotalDurationMin = *p.TotalDurationMin
	}
	if p.Geometry != nil {
		it.Geometry = *p.Geometry
	}
	if p.Instructions != nil {
		it.Instructions = *p.Instructions
	}
	if p.RouteStale != nil {
		it.RouteStale = *p.RouteStale
	}
	if p.Days != nil {
		it.Days = *p.Days
	}
	if p.DayRoutes != nil {
		it.DayRoutes = *p.DayRoutes
	}
}

// SearchResult is a candidate place returned by the stop-discovery provider
type SearchResult struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Category    string      `json:"category"`
	Coordinates Coordinates `json:"coordinates"`
	Rating      float64     `json:"rating,omitempty"`
	Price       string      `json:"price,omitempty"`
	Photo       string      `json:"photo,omitempty"`
	Description string      `json:"description,omitempty"`
	Address     string      `json:"address,omitempty"`
	Tags        []string    `json:"tags,omitempty"`
}

// PlannerStop is a stop reference produced by the trip-planning provider.
// Coordinates are never read from it.
type PlannerStop struct {
	PlaceID           string `json:"fsqPlaceId"`
	Name              string `json:"name,omitempty"`
	Category          string `json:"category,omitempty"`
	EstimatedDuration int    `json:"estimatedDuration,omitempty"`
	ScheduledTime     string `json:"scheduledTime,omitempty"`
	Order             int    `json:"order,omitempty"`
	Reason            string `json:"reason,omitempty"`
	Day               int    `json:"day,omitempty"`
	Date              string `json:"date,omitempty"`
}

// PlannerDay is one day of a day-structured plan
type PlannerDay struct {
	Day    int           `json:"day"`
	Date   string        `json:"date,omitempty"`
	Theme  string        `json:"theme,omitempty"`
	Stops  []PlannerStop `json:"stops"`
	Lunch  *PlannerStop  `json:"lunch,omitempty"`
	Dinner *PlannerStop  `json:"dinner,omitempty"`
}

// PlannerPlan is the parsed response of the trip-planning provider
type PlannerPlan struct {
	Stops []PlannerStop `json:"stops,omitempty"`
	Days  []PlannerDay  `json:"days,omitempty"`
}

// TripPreferences is the user input of a planning request
type TripPreferences struct {
	Interests  []string   `json:"interests"`
	Categories []string   `json:"categories,omitempty"`
	Budget     string     `json:"budget,omitempty"`
	Dietary    []string   `json:"dietary,omitempty"`
	Transport  TravelMode `json:"transport,omitempty"`
	MultiDay   bool       `json:"multiDay"`
	Days       int        `json:"days,omitempty"`
	StartDate  string     `json:"startDate,omitempty"`
	RadiusM    int        `json:"radius,omitempty"`
	MaxResults int        `json:"limit,omitempty"`
}

// UnmarshalJSON accepts the place id under fsqPlaceId, fsq_id or id
func (p *PlannerStop) UnmarshalJSON(data []byte) error {
	type plain PlannerStop
	var aux struct {
		plain
		FsqID string `json:"fsq_id"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = PlannerStop(aux.plain)
	if p.PlaceID == "" {
		p.PlaceID = aux.FsqID
	}
	if p.PlaceID == "" {
		p.PlaceID = aux.ID
	}
	return nil
}
