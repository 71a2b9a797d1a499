package planner

import (
	"strings"

	"savviwell/internal/shared"
)

type macroPreset struct {
	keyword             string
	protein, carbs, fat float64
}

// Order matters: "grilled chicken" must win over "salad".
var macroPresets = []macroPreset{
	{"grilled chicken", 40, 10, 12},
	{"salmon", 34, 5, 20},
	{"tofu", 22, 18, 14},
	{"salad", 12, 15, 10},
	{"omelette", 20, 4, 16},
	{"oatmeal", 10, 45, 7},
	{"yogurt", 18, 25, 5},
	{"pasta", 18, 70, 12},
	{"stir-fry", 25, 35, 12},
	{"quinoa", 14, 50, 10},
	{"curry", 20, 40, 18},
	{"tacos", 24, 38, 16},
}

var defaultPreset = macroPreset{protein: 20, carbs: 40, fat: 12}

// EstimateMacros returns rough grams for a dish. Calories is always the
// given target; the grams are not reconciled with it.
func EstimateMacros(name string, calories int) shared.Macros {
	lower := strings.ToLower(name)
	preset := defaultPreset
	for _, p := range macroPresets {
		if strings.Contains(lower, p.keyword) {
			preset = p
			break
		}
	}
	return shared.Macros{
		Calories: float64(calories),
		Protein:  preset.protein,
		Carbs:    preset.carbs,
		Fat:      preset.fat,
	}
}
