package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = `You are a travel planner. Choose stops only from the candidate list and refer to them by their "fsqPlaceId".
Reply with JSON only.
Single day: {"stops":[{"fsqPlaceId","name","category","estimatedDuration","scheduledTime","order","reason"}]}
Multiple days: {"days":[{"day","date","theme","stops":[...],"lunch":{...},"dinner":{...}}]}`

type candidate struct {
	ID       string  `json:"fsqPlaceId"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Rating   float64 `json:"rating,omitempty"`
	Price    string  `json:"price,omitempty"`
}

func buildPrompt(req PlanRequest) (string, error) {
	cands := make([]candidate, len(req.Candidates))
	for i, r := range req.Candidates {
		cands[i] = candidate{ID: r.ID, Name: r.Name, Category: r.Category, Rating: r.Rating, Price: r.Price}
	}
	candJSON, err := json.Marshal(cands)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	p := req.Preferences
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %.5f,%.5f\n", req.Location.Lat, req.Location.Lng)
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if p.Budget != "" {
		fmt.Fprintf(&b, "Budget: %s\n", p.Budget)
	}
	if len(p.Dietary) > 0 {
		fmt.Fprintf(&b, "Dietary: %s\n", strings.Join(p.Dietary, ", "))
	}
	if p.Transport != "" {
		fmt.Fprintf(&b, "Transport: %s\n", p.Transport)
	}
	if p.MultiDay && p.Days > 1 {
		fmt.Fprintf(&b, "Plan %d days", p.Days)
		if p.StartDate != "" {
			fmt.Fprintf(&b, " starting %s", p.StartDate)
		}
		b.WriteString(" with lunch and dinner each day.\n")
	} else {
		b.WriteString("Plan a single day.\n")
	}
	fmt.Fprintf(&b, "Candidates: %s\n", candJSON)
	return b.String(), nil
}
