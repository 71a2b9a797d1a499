package planner

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"savviwell/internal/catalog"
	"savviwell/internal/profile"
)

// PlaceholderMeal fills slots once the candidate pool is exhausted.
const PlaceholderMeal = "Chef's choice"

// RandomSource supplies the per-day scan offset.
type RandomSource interface {
	Intn(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewLockedRand returns a goroutine-safe RandomSource. A zero seed uses
// the current time.
func NewLockedRand(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// poolInput describes where candidates come from.
type poolInput struct {
	prefs   profile.MergedPreferences
	entries []catalog.Entry
	pantry  []string
}

// buildPool returns favorites followed by catalog entries, dropping
// inadmissible names and case-insensitive duplicates, with pantry matches
// moved to the front.
func buildPool(in poolInput) []string {
	names := make([]string, 0, len(in.prefs.Favorites)+len(in.entries))
	names = append(names, in.prefs.Favorites...)
	for _, e := range in.entries {
		names = append(names, e.Name)
	}

	seen := make(map[string]bool, len(names))
	pool := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] || !Admissible(n, in.prefs) {
			continue
		}
		seen[key] = true
		pool = append(pool, n)
	}
	return pantryFirst(pool, in.pantry)
}

// pantryFirst stable-sorts names so those mentioning a pantry item lead.
func pantryFirst(names, pantry []string) []string {
	sort.SliceStable(names, func(i, j int) bool {
		return matchesPantry(names[i], pantry) && !matchesPantry(names[j], pantry)
	})
	return names
}

func matchesPantry(name string, pantry []string) bool {
	lower := strings.ToLower(name)
	for _, p := range pantry {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// pickMeals chooses slots names from pool without repeating a name. Slot i
// scans from (offset+i) mod len(pool), wrapping, and takes the first
// unused name.
func pickMeals(pool []string, slots, offset int) []string {
	picked := make([]string, 0, slots)
	used := make(map[string]bool, slots)
	for i := 0; i < slots; i++ {
		name := PlaceholderMeal
		for k := 0; k < len(pool); k++ {
			cand := pool[(offset+i+k)%len(pool)]
			if !used[strings.ToLower(cand)] {
				name = cand
				break
			}
		}
		used[strings.ToLower(name)] = true
		picked = append(picked, name)
	}
	return picked
}

// selectDay draws one offset from rnd and picks the day's meals.
func selectDay(pool []string, slots int, rnd RandomSource) []string {
	offset := 0
	if len(pool) > 0 {
		offset = rnd.Intn(len(pool))
	}
	return pickMeals(pool, slots, offset)
}

// tagMeal returns the catalog type and spice of name, or the slot's
// cycled type and the tier ceiling when the name is not catalogued.
func tagMeal(name string, slot int, types []catalog.MealType, tier catalog.SpiceTier, cat *catalog.Catalog) (catalog.MealType, catalog.SpiceLevel) {
	if e, ok := cat.Lookup(name); ok {
		return e.Type, e.Spice
	}
	return types[slot%len(types)], tier.Ceiling()
}
