package georoute

import (
	"strings"

	"itinerary-router/internal/models"
)

const (
	ProfileFoot    = "foot"
	ProfileDriving = "driving"
	ProfileBicycle = "bicycle"
)

// Profile maps a user travel mode to the routing engine profile.
// Unknown modes fall back to foot.
func Profile(mode models.TravelMode) string {
	switch models.TravelMode(strings.ToLower(strings.TrimSpace(string(mode)))) {
	case models.ModeWalking:
		return ProfileFoot
	case models.ModeDriving:
		return ProfileDriving
	case models.ModeCycling:
		return ProfileBicycle
	default:
		return ProfileFoot
	}
}
