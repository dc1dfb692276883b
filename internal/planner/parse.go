package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"itinerary-router/internal/models"
)

type rawDay struct {
	Day    int                  `json:"day"`
	Date   string               `json:"date"`
	Theme  string               `json:"theme"`
	Stops  []models.PlannerStop `json:"stops"`
	Lunch  *models.PlannerStop  `json:"lunch"`
	Dinner *models.PlannerStop  `json:"dinner"`
	Meals  *struct {
		Lunch  *models.PlannerStop `json:"lunch"`
		Dinner *models.PlannerStop `json:"dinner"`
	} `json:"meals"`
}

type rawPlan struct {
	Stops     []models.PlannerStop `json:"stops"`
	Itinerary []models.PlannerStop `json:"itinerary"`
	Days      []rawDay             `json:"days"`
}

// ParsePlan extracts a plan from model output. It tolerates code fences,
// surrounding prose, a bare stop array, "itinerary" in place of "stops" and
// meal slots nested under "meals".
func ParsePlan(text string) (*models.PlannerPlan, error) {
	body := extractJSON(text)
	if body == "" {
		return nil, ErrEmptyPlan
	}

	plan := &models.PlannerPlan{}
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &plan.Stops); err != nil {
			return nil, fmt.Errorf("parse plan: %w", err)
		}
	} else {
		var raw rawPlan
		if err := json.Unmarshal([]byte(body), &raw); err != nil {
			return nil, fmt.Errorf("parse plan: %w", err)
		}
		plan.Stops = raw.Stops
		if len(plan.Stops) == 0 {
			plan.Stops = raw.Itinerary
		}
		for i, d := range raw.Days {
			day := models.PlannerDay{Day: d.Day, Date: d.Date, Theme: d.Theme, Stops: d.Stops, Lunch: d.Lunch, Dinner: d.Dinner}
			if day.Day <= 0 {
				day.Day = i + 1
			}
			if d.Meals != nil {
				if day.Lunch == nil {
					day.Lunch = d.Meals.Lunch
				}
				if day.Dinner == nil {
					day.Dinner = d.Meals.Dinner
				}
			}
			plan.Days = append(plan.Days, day)
		}
	}

	if len(plan.Stops) == 0 && len(plan.Days) == 0 {
		return nil, ErrEmptyPlan
	}
	return plan, nil
}

// extractJSON returns the outermost JSON object or array in text
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	open := strings.IndexAny(text, "{[")
	if open < 0 {
		return ""
	}
	closer := "}"
	if text[open] == '[' {
		closer = "]"
	}
	end := strings.LastIndex(text, closer)
	if end < open {
		return ""
	}
	return text[open : end+1]
}
