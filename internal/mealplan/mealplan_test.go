package mealplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanClone(t *testing.T) {
	orig := &Plan{
		Source:   SourceFallback,
		Audience: []int{1, 2},
		Days: []Day{{
			Day:   1,
			Meals: []Meal{{Name: "Trail mix"}, {Name: "Tofu stir-fry"}},
			Swaps: []Swap{{Meal: "Trail mix", Alternatives: []string{"Berry sorbet"}}},
		}},
	}

	cp := orig.Clone()
	cp.Days[0].Meals[0].Name = "Lentil soup"
	cp.Days[0].Swaps[0].Alternatives[0] = "Avocado toast"
	cp.Audience[0] = 9

	assert.Equal(t, "Trail mix", orig.Days[0].Meals[0].Name)
	assert.Equal(t, "Berry sorbet", orig.Days[0].Swaps[0].Alternatives[0])
	assert.Equal(t, 1, orig.Audience[0])
	assert.Equal(t, []string{"Trail mix", "Tofu stir-fry"}, orig.MealNames())

	var nilPlan *Plan
	assert.Nil(t, nilPlan.Clone())
}
