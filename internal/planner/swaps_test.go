package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"savviwell/internal/profile"
)

func TestGenerateSwaps(t *testing.T) {
	catalogNames := []string{"Tofu stir-fry", "Grilled chicken salad", "Lentil soup", "Spinach and feta frittata", "Chickpea curry"}

	t.Run("ExcludesAndCaps", func(t *testing.T) {
		got := GenerateSwaps(SwapInput{
			Catalog: catalogNames,
			Exclude: []string{"TOFU STIR-FRY", "lentil soup"},
			Max:     2,
		})
		assert.Equal(t, []string{"Grilled chicken salad", "Spinach and feta frittata"}, got)
	})

	t.Run("NeverReturnsExcluded", func(t *testing.T) {
		exclude := []string{"Grilled chicken salad", "chickpea curry"}
		for max := 0; max <= 6; max++ {
			got := GenerateSwaps(SwapInput{Favorites: []string{"Chickpea Curry"}, Catalog: catalogNames, Exclude: exclude, Max: max})
			assert.LessOrEqual(t, len(got), max)
			for _, g := range got {
				for _, e := range exclude {
					assert.False(t, strings.EqualFold(g, e), "returned excluded %q", g)
				}
			}
		}
	})

	t.Run("PantryFirstThenFavorites", func(t *testing.T) {
		got := GenerateSwaps(SwapInput{
			Favorites: []string{"Pho", "tofu stir-fry"},
			Catalog:   catalogNames,
			Pantry:    []string{"spinach"},
			Max:       4,
		})
		assert.Equal(t, []string{"Spinach and feta frittata", "Pho", "tofu stir-fry", "Grilled chicken salad"}, got)
	})

	t.Run("FiltersInadmissible", func(t *testing.T) {
		got := GenerateSwaps(SwapInput{
			Prefs:   profile.MergedPreferences{Restrictions: []string{"vegetarian"}, Allergies: []string{"soy"}},
			Catalog: append(catalogNames, "Soy glazed eggplant"),
			Max:     10,
		})
		assert.Equal(t, []string{"Tofu stir-fry", "Lentil soup", "Spinach and feta frittata", "Chickpea curry"}, got)
	})

	t.Run("ZeroMax", func(t *testing.T) {
		got := GenerateSwaps(SwapInput{Catalog: catalogNames})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
