package planner

import (
	"strings"

	"savviwell/internal/mealplan"
)

const (
	saladReplacement   = "Tofu stir-fry"
	defaultReplacement = "Quinoa bowl with roasted vegetables"
)

// Adjustment describes the meal an instruction replaced.
type Adjustment struct {
	Day      int
	Slot     int
	Original string
	Replaced string
}

// applyAdjustment replaces the first meal the instruction matches, in day
// then slot order. An instruction matches a meal when it says "change" or
// "swap" or mentions the meal's name. It reports false when nothing matched.
func applyAdjustment(plan *mealplan.Plan, instruction string) (Adjustment, bool) {
	instr := strings.ToLower(instruction)
	generic := strings.Contains(instr, "change") || strings.Contains(instr, "swap")

	for d := range plan.Days {
		for s := range plan.Days[d].Meals {
			meal := &plan.Days[d].Meals[s]
			if !generic && !strings.Contains(instr, strings.ToLower(meal.Name)) {
				continue
			}

			adj := Adjustment{Day: plan.Days[d].Day, Slot: s, Original: meal.Name, Replaced: defaultReplacement}
			if strings.Contains(strings.ToLower(meal.Name), "salad") {
				adj.Replaced = saladReplacement
			}
			meal.Name = adj.Replaced
			meal.Macros = EstimateMacros(meal.Name, meal.PerPersonCalories)
			return adj, true
		}
	}
	return Adjustment{}, false
}
