package planner

import (
	"strings"

	"savviwell/internal/profile"
)

// SwapInput gathers what the swap generator ranks.
type SwapInput struct {
	Prefs     profile.MergedPreferences
	Favorites []string
	Catalog   []string
	Pantry    []string
	Exclude   []string
	Max       int
}

// GenerateSwaps returns up to Max distinct admissible names, pantry
// matches first, never returning anything in Exclude.
func GenerateSwaps(in SwapInput) []string {
	out := []string{}
	if in.Max <= 0 {
		return out
	}

	skip := make(map[string]bool, len(in.Exclude))
	for _, e := range in.Exclude {
		skip[strings.ToLower(strings.TrimSpace(e))] = true
	}

	var cands []string
	for _, src := range [][]string{in.Favorites, in.Catalog} {
		for _, n := range src {
			key := strings.ToLower(strings.TrimSpace(n))
			if key == "" || skip[key] || !Admissible(n, in.Prefs) {
				continue
			}
			skip[key] = true
			cands = append(cands, n)
		}
	}

	for _, n := range pantryFirst(cands, in.Pantry) {
		if len(out) == in.Max {
			break
		}
		out = append(out, n)
	}
	return out
}
