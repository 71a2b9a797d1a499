package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// MealType is the slot a catalog entry is served in.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
	Dessert   MealType = "dessert"
	Entree    MealType = "entree"
	Main      MealType = "main"
)

// DefaultMealTypes are used when a request names none.
var DefaultMealTypes = []MealType{Breakfast, Lunch, Dinner}

// ParseMealType returns the meal type for s, ignoring case.
func ParseMealType(s string) (MealType, bool) {
	switch t := MealType(strings.ToLower(strings.TrimSpace(s))); t {
	case Breakfast, Lunch, Dinner, Snack, Dessert, Entree, Main:
		return t, true
	}
	return "", false
}

// SpiceLevel is the ordinal heat of a dish: 0 mild, 1 medium, 2 hot.
type SpiceLevel int

// SpiceTier is the heat a request tolerates.
type SpiceTier string

const (
	Mild   SpiceTier = "Mild"
	Medium SpiceTier = "Medium"
	Hot    SpiceTier = "Hot"
)

// Ceiling is the highest spice level admitted by the tier.
func (t SpiceTier) Ceiling() SpiceLevel {
	switch t {
	case Hot:
		return 2
	case Medium:
		return 1
	default:
		return 0
	}
}

// ParseSpiceTier maps free text to a tier. Empty input means Medium.
func ParseSpiceTier(s string) (SpiceTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mild":
		return Mild, nil
	case "", "medium":
		return Medium, nil
	case "hot", "spicy":
		return Hot, nil
	}
	return "", fmt.Errorf("unknown spice tier %q", s)
}

// Entry is a known meal with its type and spice metadata.
type Entry struct {
	Name  string     `yaml:"name" json:"name"`
	Type  MealType   `yaml:"mealType" json:"mealType"`
	Spice SpiceLevel `yaml:"spiceLevel" json:"spiceLevel"`
}

// Catalog is a concurrency-safe list of meal entries.
type Catalog struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates a catalog holding a copy of entries.
func New(entries []Entry) *Catalog {
	c := &Catalog{}
	c.Replace(entries)
	return c
}

// Entries returns a snapshot of the catalog.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns every entry name in catalog order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	return names
}

// Lookup finds an entry by case-insensitive name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// Replace swaps the catalog contents. Entries without a name are skipped
// and later duplicates of a name are dropped.
func (c *Catalog) Replace(entries []Entry) {
	seen := make(map[string]bool, len(entries))
	next := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.Name))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		next = append(next, e)
	}

	c.mu.Lock()
	c.entries = next
	c.mu.Unlock()
}

// Add appends e unless an entry with the same name exists. It reports
// whether the entry was added.
func (c *Catalog) Add(e Entry) bool {
	if strings.TrimSpace(e.Name) == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cur := range c.entries {
		if strings.EqualFold(cur.Name, e.Name) {
			return false
		}
	}
	c.entries = append(c.entries, e)
	return true
}

// Filter returns the entries of the given types at or below the spice ceiling.
func (c *Catalog) Filter(types []MealType, ceiling SpiceLevel) []Entry {
	allowed := make(map[MealType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Entry
	for _, e := range c.entries {
		if allowed[e.Type] && e.Spice <= ceiling {
			out = append(out, e)
		}
	}
	return out
}
