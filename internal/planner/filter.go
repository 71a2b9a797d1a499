package planner

import (
	"strings"

	"savviwell/internal/profile"
)

var vegetarianKeywords = []string{"chicken", "turkey", "salmon", "beef", "pork", "fish"}

// restrictionKeywords maps a normalised restriction to the name fragments
// it forbids. " egg " and " eggs " only match whole words since names are
// padded with spaces before matching.
var restrictionKeywords = map[string][]string{
	"vegetarian":  vegetarianKeywords,
	"vegan":       append(append([]string{}, vegetarianKeywords...), "yogurt", "cheese", "milk", "butter", "cream", "omelette", "frittata", " egg ", " eggs "),
	"gluten_free": {"sandwich", "bread", "bun", "pasta"},
	"dairy_free":  {"yogurt", "cheese"},
	"pescatarian": {"chicken", "turkey", "beef", "pork"},
}

// NormalizeRestriction maps spellings such as "Gluten Free" and
// "gluten-free" to the table key "gluten_free".
func NormalizeRestriction(r string) string {
	r = strings.ToLower(strings.TrimSpace(r))
	return strings.NewReplacer("-", "_", " ", "_").Replace(r)
}

// Admissible reports whether a meal name passes the dislike, restriction
// and allergy checks of prefs. Matching is a case-insensitive substring test.
func Admissible(name string, prefs profile.MergedPreferences) bool {
	lower := strings.ToLower(name)
	padded := " " + lower + " "

	for _, d := range prefs.Dislikes {
		if d != "" && strings.Contains(lower, strings.ToLower(d)) {
			return false
		}
	}
	for _, r := range prefs.Restrictions {
		for _, kw := range restrictionKeywords[NormalizeRestriction(r)] {
			if strings.Contains(padded, kw) {
				return false
			}
		}
	}
	for _, a := range prefs.Allergies {
		if a != "" && strings.Contains(lower, strings.ToLower(a)) {
			return false
		}
	}
	return true
}
