package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"savviwell/internal/shared"
)

func TestEstimateMacros(t *testing.T) {
	tests := []struct {
		meal string
		want shared.Macros
	}{
		{"Grilled chicken salad", shared.Macros{Calories: 600, Protein: 40, Carbs: 10, Fat: 12}},
		{"Caprese pasta salad", shared.Macros{Calories: 600, Protein: 12, Carbs: 15, Fat: 10}},
		{"Tofu stir-fry", shared.Macros{Calories: 600, Protein: 22, Carbs: 18, Fat: 14}},
		{"Beef and broccoli STIR-FRY", shared.Macros{Calories: 600, Protein: 25, Carbs: 35, Fat: 12}},
		{"Mushroom risotto", shared.Macros{Calories: 600, Protein: 20, Carbs: 40, Fat: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.meal, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateMacros(tt.meal, 600))
		})
	}

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, EstimateMacros("Quinoa bowl with roasted vegetables", 667), EstimateMacros("Quinoa bowl with roasted vegetables", 667))
	})

	t.Run("CaloriesAreTarget", func(t *testing.T) {
		assert.Equal(t, 123.0, EstimateMacros("Baked salmon", 123).Calories)
	})
}
