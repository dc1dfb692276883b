package georoute

import (
	"fmt"
	"math"
	"strings"
)

// Maneuver is the raw maneuver of one route step
type Maneuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier"`
	Exit     int    `json:"exit"`
}

// Step is one raw route step as returned by the routing engine
type Step struct {
	Name     string   `json:"name"`
	Distance float64  `json:"distance"`
	Duration float64  `json:"duration"`
	Maneuver Maneuver `json:"maneuver"`
}

// FormatDistance renders meters as rounded meters below 1 km, else one-decimal km
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// RenderStep turns a raw step into display text. It never returns an empty string.
func RenderStep(s Step) string {
	road := strings.TrimSpace(s.Name)
	if road == "" {
		road = "unnamed road"
	}
	mod := strings.TrimSpace(s.Maneuver.Modifier)
	dist := FormatDistance(s.Distance)
	typ := strings.TrimSpace(s.Maneuver.Type)

	if mod == "uturn" && typ != "depart" && typ != "arrive" {
		typ = "uturn"
	}

	switch typ {
	case "depart":
		if mod == "" {
			return fmt.Sprintf("Depart on %s (%s)", road, dist)
		}
		return fmt.Sprintf("Head %s on %s (%s)", mod, road, dist)
	case "arrive":
		if s.Name == "" {
			return "Arrive at your destination"
		}
		if mod == "" || mod == "straight" {
			return fmt.Sprintf("Arrive at %s", road)
		}
		return fmt.Sprintf("Arrive at %s, on the %s", road, mod)
	case "turn":
		if mod == "" {
			return fmt.Sprintf("Turn onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("Turn %s onto %s (%s)", mod, road, dist)
	case "continue":
		if mod == "" || mod == "straight" {
			return fmt.Sprintf("Continue straight on %s (%s)", road, dist)
		}
		return fmt.Sprintf("Continue %s on %s (%s)", mod, road, dist)
	case "new name":
		return fmt.Sprintf("Continue onto %s (%s)", road, dist)
	case "fork":
		if mod == "" {
			return fmt.Sprintf("Take the fork onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("Keep %s at the fork onto %s (%s)", mod, road, dist)
	case "merge":
		if mod == "" {
			return fmt.Sprintf("Merge onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("Merge %s onto %s (%s)", mod, road, dist)
	case "roundabout", "rotary", "roundabout turn":
		if s.Maneuver.Exit > 0 {
			return fmt.Sprintf("At the roundabout, take exit %d onto %s (%s)", s.Maneuver.Exit, road, dist)
		}
		return fmt.Sprintf("Enter the roundabout and continue onto %s (%s)", road, dist)
	case "exit roundabout", "exit rotary":
		return fmt.Sprintf("Exit the roundabout onto %s (%s)", road, dist)
	case "end of road":
		if mod == "" {
			return fmt.Sprintf("At the end of the road, continue onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("At the end of the road, turn %s onto %s (%s)", mod, road, dist)
	case "use lane":
		if mod == "" || mod == "straight" {
			return fmt.Sprintf("Stay in your lane on %s (%s)", road, dist)
		}
		return fmt.Sprintf("Use the lane to go %s on %s (%s)", mod, road, dist)
	case "on ramp":
		if mod == "" {
			return fmt.Sprintf("Take the ramp onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("Take the ramp on the %s onto %s (%s)", mod, road, dist)
	case "off ramp":
		if mod == "" {
			return fmt.Sprintf("Take the exit onto %s (%s)", road, dist)
		}
		return fmt.Sprintf("Take the exit on the %s onto %s (%s)", mod, road, dist)
	case "uturn":
		return fmt.Sprintf("Make a U-turn onto %s (%s)", road, dist)
	}

	label := typ
	if label == "" {
		label = "Proceed"
	} else {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	return fmt.Sprintf("%s on %s (%s)", label, road, dist)
}

// RenderSteps renders every step of a leg in order
func RenderSteps(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, RenderStep(s))
	}
	return out
}
