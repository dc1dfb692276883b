package georoute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"itinerary-router/internal/models"
)

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0 m", FormatDistance(0))
	assert.Equal(t, "250 m", FormatDistance(249.6))
	assert.Equal(t, "999 m", FormatDistance(999.4))
	assert.Equal(t, "1.0 km", FormatDistance(1000))
	assert.Equal(t, "12.3 km", FormatDistance(12345))
}

func TestRenderStep(t *testing.T) {
	step := func(typ, mod, name string, dist float64) Step {
		return Step{Name: name, Distance: dist, Maneuver: Maneuver{Type: typ, Modifier: mod}}
	}

	tests := []struct {
		name string
		step Step
		want string
	}{
		{"depart with modifier", step("depart", "north", "Main St", 120), "Head north on Main St (120 m)"},
		{"depart bare", step("depart", "", "Main St", 120), "Depart on Main St (120 m)"},
		{"arrive unnamed", step("arrive", "", "", 0), "Arrive at your destination"},
		{"arrive side", step("arrive", "left", "Park Ave", 0), "Arrive at Park Ave, on the left"},
		{"turn", step("turn", "sharp left", "Elm St", 40), "Turn sharp left onto Elm St (40 m)"},
		{"continue straight", step("continue", "straight", "Elm St", 1500), "Continue straight on Elm St (1.5 km)"},
		{"new name", step("new name", "straight", "Oak St", 300), "Continue onto Oak St (300 m)"},
		{"fork", step("fork", "slight right", "A1", 2000), "Keep slight right at the fork onto A1 (2.0 km)"},
		{"merge", step("merge", "left", "A1", 800), "Merge left onto A1 (800 m)"},
		{"end of road", step("end of road", "right", "Pine St", 90), "At the end of the road, turn right onto Pine St (90 m)"},
		{"use lane", step("use lane", "left", "Pine St", 90), "Use the lane to go left on Pine St (90 m)"},
		{"on ramp", step("on ramp", "right", "I-5", 400), "Take the ramp on the right onto I-5 (400 m)"},
		{"off ramp", step("off ramp", "", "Exit 4", 400), "Take the exit onto Exit 4 (400 m)"},
		{"uturn modifier", step("turn", "uturn", "Elm St", 10), "Make a U-turn onto Elm St (10 m)"},
		{"unnamed road", step("turn", "left", "", 10), "Turn left onto unnamed road (10 m)"},
		{"unknown type", step("notification", "", "Elm St", 10), "Notification on Elm St (10 m)"},
		{"empty type", step("", "", "Elm St", 10), "Proceed on Elm St (10 m)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderStep(tt.step))
		})
	}

	roundabout := Step{Name: "Ring Rd", Distance: 600, Maneuver: Maneuver{Type: "roundabout", Exit: 2}}
	assert.Equal(t, "At the roundabout, take exit 2 onto Ring Rd (600 m)", RenderStep(roundabout))
	assert.NotEmpty(t, RenderStep(Step{}))
}

func TestProfile(t *testing.T) {
	assert.Equal(t, "foot", Profile(models.ModeWalking))
	assert.Equal(t, "driving", Profile(models.ModeDriving))
	assert.Equal(t, "bicycle", Profile(models.ModeCycling))
	assert.Equal(t, "driving", Profile("Driving "))
	assert.Equal(t, "foot", Profile("teleport"))
	assert.Equal(t, "foot", Profile(""))
}

func TestRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, 2, p.MaxRetries)
	assert.Equal(t, 400*time.Millisecond, p.Delay(0))
	assert.Equal(t, 800*time.Millisecond, p.Delay(1))

	for i := 0; i < 20; i++ {
		d := p.jittered(0)
		assert.GreaterOrEqual(t, d, 400*time.Millisecond)
		assert.LessOrEqual(t, d, 500*time.Millisecond)
	}

	assert.True(t, Retryable(429))
	assert.True(t, Retryable(500))
	assert.True(t, Retryable(503))
	assert.False(t, Retryable(400))
	assert.False(t, Retryable(404))
}
