package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	t.Run("fenced stops", func(t *testing.T) {
		plan, err := ParsePlan("```json\n{\"stops\":[{\"fsqPlaceId\":\"a\"},{\"id\":\"b\"}]}\n```")
		require.NoError(t, err)
		require.Len(t, plan.Stops, 2)
		assert.Equal(t, "b", plan.Stops[1].PlaceID)
	})

	t.Run("prose around an array", func(t *testing.T) {
		plan, err := ParsePlan(`Here you go: [{"fsqPlaceId":"a"}] enjoy`)
		require.NoError(t, err)
		require.Len(t, plan.Stops, 1)
	})

	t.Run("itinerary key", func(t *testing.T) {
		plan, err := ParsePlan(`{"itinerary":[{"fsqPlaceId":"a"}]}`)
		require.NoError(t, err)
		require.Len(t, plan.Stops, 1)
	})

	t.Run("days with nested meals", func(t *testing.T) {
		plan, err := ParsePlan(`{"days":[
			{"day":1,"theme":"Old town","stops":[{"fsqPlaceId":"a"}],"lunch":{"fsqPlaceId":"l1"}},
			{"stops":[{"fsqPlaceId":"b"}],"meals":{"lunch":{"fsqPlaceId":"l2"},"dinner":{"fsqPlaceId":"d2"}}}
		]}`)
		require.NoError(t, err)
		require.Len(t, plan.Days, 2)
		assert.Equal(t, "Old town", plan.Days[0].Theme)
		assert.Equal(t, "l1", plan.Days[0].Lunch.PlaceID)
		assert.Nil(t, plan.Days[0].Dinner)
		assert.Equal(t, 2, plan.Days[1].Day, "missing day numbers follow position")
		assert.Equal(t, "l2", plan.Days[1].Lunch.PlaceID)
		assert.Equal(t, "d2", plan.Days[1].Dinner.PlaceID)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParsePlan(`{"stops":[]}`)
		assert.ErrorIs(t, err, ErrEmptyPlan)
		_, err = ParsePlan("no json here")
		assert.ErrorIs(t, err, ErrEmptyPlan)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParsePlan(`{"stops":[{"fsqPlaceId":}]}`)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyPlan)
	})
}
