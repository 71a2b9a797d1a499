package mealplan

import (
	"time"

	"savviwell/internal/catalog"
	"savviwell/internal/shared"
)

// Source records which path produced a plan.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Meal is one slot of a day.
type Meal struct {
	Type              catalog.MealType   `json:"type"`
	Name              string             `json:"name"`
	Spiciness         catalog.SpiceLevel `json:"spiciness"`
	PerPersonCalories int                `json:"perPersonCalories"`
	Macros            shared.Macros      `json:"macros"`
}

// Swap lists alternatives for one meal of the day.
type Swap struct {
	Meal         string   `json:"meal"`
	Alternatives []string `json:"alternatives"`
}

// Day represents the plan for a single day.
type Day struct {
	Day   int    `json:"day"`
	Meals []Meal `json:"meals"`
	Swaps []Swap `json:"swaps"`
}

// Plan represents a full multi-day meal plan.
type Plan struct {
	Days        []Day     `json:"days"`
	Source      Source    `json:"source"`
	Audience    []int     `json:"audience"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := *p
	out.Audience = append([]int(nil), p.Audience...)
	out.Days = make([]Day, len(p.Days))
	for i, d := range p.Days {
		out.Days[i] = Day{
			Day:   d.Day,
			Meals: append([]Meal(nil), d.Meals...),
			Swaps: make([]Swap, len(d.Swaps)),
		}
		for j, s := range d.Swaps {
			out.Days[i].Swaps[j] = Swap{Meal: s.Meal, Alternatives: append([]string(nil), s.Alternatives...)}
		}
	}
	return &out
}

// MealNames returns every meal name in day then slot order.
func (p *Plan) MealNames() []string {
	var names []string
	for _, d := range p.Days {
		for _, m := range d.Meals {
			names = append(names, m.Name)
		}
	}
	return names
}
