package planner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/catalog"
	"savviwell/internal/conversation"
	"savviwell/internal/llm"
	"savviwell/internal/mealplan"
	"savviwell/internal/pantry"
	"savviwell/internal/profile"
	"savviwell/internal/shared"
	"savviwell/internal/store"
)

type MockTextGenerator struct {
	Content string
	Err     error
	Prompts []string
}

func (m *MockTextGenerator) GenerateContent(_ context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{Content: m.Content, Usage: shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50}}, nil
}

type recordingMetrics struct {
	plans    []mealplan.Source
	failures []string
}

func (r *recordingMetrics) ObservePlan(s mealplan.Source, _ time.Duration) { r.plans = append(r.plans, s) }
func (r *recordingMetrics) ObserveCollaboratorFailure(c string) { r.failures = append(r.failures, c) }

type testEnv struct {
	planner  *Planner
	profiles *profile.Service
	convs    *conversation.Repository
	pantry   *pantry.Repository
	metrics  *recordingMetrics
}

func newTestEnv(ai llm.TextGenerator) *testEnv {
	mem := store.NewMemory()
	env := &testEnv{
		profiles: profile.NewService(mem, zap.NewNop()),
		convs:    conversation.NewRepository(mem),
		pantry:   pantry.NewRepository(mem),
		metrics:  &recordingMetrics{},
	}
	env.planner = New(Deps{
		Profiles:      env.profiles,
		Conversations: env.convs,
		Pantry:        env.pantry,
		Catalog:       catalog.Default(),
		AI:            ai,
		Random:        &seqRand{vals: []int{0, 3, 7, 11}},
		Metrics:       env.metrics,
		Logger:        zap.NewNop(),
		AITimeout:     time.Second,
	})
	return env
}

func TestGeneratePlanFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("DislikedSaladWithFailingAI", func(t *testing.T) {
		ai := &MockTextGenerator{Err: errors.New("service unavailable")}
		env := newTestEnv(ai)
		_, err := env.profiles.Update(ctx, 1, profile.Patch{Dislikes: []string{"salad"}})
		require.NoError(t, err)

		plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 1, MealsPerDay: 1})
		require.NoError(t, err)
		require.Len(t, plan.Days, 1)
		require.Len(t, plan.Days[0].Meals, 1)
		assert.NotContains(t, strings.ToLower(plan.Days[0].Meals[0].Name), "salad")
		assert.Equal(t, mealplan.SourceFallback, plan.Source)
		assert.Len(t, ai.Prompts, 1)
		assert.Equal(t, []string{"ai"}, env.metrics.failures)
		assert.Equal(t, []mealplan.Source{mealplan.SourceFallback}, env.metrics.plans)
	})

	t.Run("ShapeAndCalories", func(t *testing.T) {
		env := newTestEnv(nil)
		goal := 1800.0
		_, err := env.profiles.Update(ctx, 1, profile.Patch{DailyCalorieGoal: &goal})
		require.NoError(t, err)

		plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1, 2, 0, -4, 2}, Days: 3, MealsPerDay: 3, Spice: "mild"})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, plan.Audience)
		require.Len(t, plan.Days, 3)
		for i, d := range plan.Days {
			assert.Equal(t, i+1, d.Day)
			require.Len(t, d.Meals, 3)
			require.Len(t, d.Swaps, 3)
			seen := map[string]bool{}
			for j, m := range d.Meals {
				// (1800 + 2000) / 2 / 3 = 633.33
				assert.Equal(t, 633, m.PerPersonCalories)
				assert.Equal(t, 633.0, m.Macros.Calories)
				assert.Equal(t, catalog.SpiceLevel(0), m.Spiciness)
				assert.False(t, seen[strings.ToLower(m.Name)], "repeat %q on day %d", m.Name, d.Day)
				seen[strings.ToLower(m.Name)] = true

				assert.Equal(t, m.Name, d.Swaps[j].Meal)
				assert.LessOrEqual(t, len(d.Swaps[j].Alternatives), swapsPerMeal)
			}
			for _, s := range d.Swaps {
				for _, alt := range s.Alternatives {
					assert.False(t, seen[strings.ToLower(alt)], "swap %q repeats a meal of the day", alt)
				}
			}
		}
	})

	t.Run("ClampsAndDefaults", func(t *testing.T) {
		env := newTestEnv(nil)
		plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 40, MealsPerDay: 9, MealTypes: []string{"brunch"}})
		require.NoError(t, err)
		assert.Len(t, plan.Days, MaxDays)
		assert.Len(t, plan.Days[0].Meals, MaxMealsPerDay)

		plan, err = env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: -2, MealTypes: []string{"Snack", "dessert"}})
		require.NoError(t, err)
		require.Len(t, plan.Days, 1)
		require.Len(t, plan.Days[0].Meals, 2)
		for _, m := range plan.Days[0].Meals {
			assert.Contains(t, []catalog.MealType{catalog.Snack, catalog.Dessert}, m.Type)
		}

		plan, err = env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}})
		require.NoError(t, err)
		assert.Len(t, plan.Days, 7)
		assert.Len(t, plan.Days[0].Meals, len(catalog.DefaultMealTypes))
	})

	t.Run("PantryBoost", func(t *testing.T) {
		env := newTestEnv(nil)
		_, err := env.pantry.Add(ctx, pantry.Item{ItemName: "Chickpea"})
		require.NoError(t, err)
		env.planner.rnd = &seqRand{vals: []int{0}}

		plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 1, MealsPerDay: 1, MealTypes: []string{"lunch"}, Spice: "hot"})
		require.NoError(t, err)
		assert.Equal(t, "Chickpea salad wrap", plan.Days[0].Meals[0].Name)
	})

	t.Run("Validation", func(t *testing.T) {
		env := newTestEnv(nil)
		_, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{0, -1}})
		assert.True(t, apperr.IsValidation(err))
		_, err = env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Spice: "volcanic"})
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestGeneratePlanAI(t *testing.T) {
	ctx := context.Background()

	t.Run("UsesValidAnswer", func(t *testing.T) {
		ai := &MockTextGenerator{Content: "Here is the plan:\n" +
			`[{"day":1,"meals":[{"type":"breakfast","name":"Miso oatmeal"},{"type":"dinner","name":"Tofu stir-fry"}]}]`}
		env := newTestEnv(ai)

		plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 1, MealsPerDay: 2, MealTypes: []string{"breakfast", "dinner"}, Cuisine: "Japanese"})
		require.NoError(t, err)
		assert.Equal(t, mealplan.SourceAI, plan.Source)
		require.Len(t, plan.Days[0].Meals, 2)

		oat := plan.Days[0].Meals[0]
		assert.Equal(t, "Miso oatmeal", oat.Name)
		assert.Equal(t, catalog.Breakfast, oat.Type)
		assert.Equal(t, 10.0, oat.Macros.Protein)

		tofu := plan.Days[0].Meals[1]
		assert.Equal(t, catalog.Dinner, tofu.Type)
		assert.Equal(t, catalog.SpiceLevel(1), tofu.Spiciness)

		require.Len(t, ai.Prompts, 1)
		assert.Contains(t, ai.Prompts[0], "Preferred cuisine: Japanese")
		assert.Contains(t, ai.Prompts[0], "exactly 2 meals per day")
		assert.Empty(t, env.metrics.failures)
	})

	rejected := map[string]string{
		"WrongDayCount":  `[]`,
		"WrongMealCount": `[{"day":1,"meals":[{"name":"Tofu stir-fry"}]}]`,
		"RepeatsMeal":    `[{"day":1,"meals":[{"name":"Tofu stir-fry"},{"name":"TOFU stir-fry"}]}]`,
		"Inadmissible":   `[{"day":1,"meals":[{"name":"Grilled chicken salad"},{"name":"Tofu stir-fry"}]}]`,
		"BlankName":      `[{"day":1,"meals":[{"name":" "},{"name":"Tofu stir-fry"}]}]`,
		"NoJSON":         `I would suggest tofu.`,
		"WrongShape":     `[1, 2]`,
	}
	for name, content := range rejected {
		t.Run("FallsBackOn"+name, func(t *testing.T) {
			env := newTestEnv(&MockTextGenerator{Content: content})
			_, err := env.profiles.Update(ctx, 1, profile.Patch{DietaryRestrictions: []string{"vegetarian"}})
			require.NoError(t, err)

			plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 1, MealsPerDay: 2})
			require.NoError(t, err)
			assert.Equal(t, mealplan.SourceFallback, plan.Source)
			assert.Equal(t, []string{"ai"}, env.metrics.failures)
			for _, m := range plan.Days[0].Meals {
				assert.NotContains(t, strings.ToLower(m.Name), "chicken")
			}
		})
	}
}

func TestGeneratePlanStoresConversation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	plan, err := env.planner.GeneratePlan(ctx, PlanRequest{Audience: []int{1}, Days: 2, MealsPerDay: 2, ConversationID: "conv-1"})
	require.NoError(t, err)

	conv, err := env.convs.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, conv.CurrentPlan)
	assert.Equal(t, plan.MealNames(), conv.CurrentPlan.MealNames())
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, conversation.RoleUser, conv.Messages[0].Role)
	assert.Contains(t, conv.Messages[1].Content, "2-day plan")
}

func TestAdjustPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)

	stored := &mealplan.Plan{
		Source: mealplan.SourceFallback,
		Days: []mealplan.Day{
			{Day: 1, Meals: []mealplan.Meal{
				{Type: catalog.Lunch, Name: "Grilled chicken salad", PerPersonCalories: 600, Macros: EstimateMacros("Grilled chicken salad", 600)},
				{Type: catalog.Dinner, Name: "Pasta primavera", PerPersonCalories: 600, Macros: EstimateMacros("Pasta primavera", 600)},
			}},
			{Day: 2, Meals: []mealplan.Meal{
				{Type: catalog.Lunch, Name: "Lentil soup", PerPersonCalories: 600, Macros: EstimateMacros("Lentil soup", 600)},
			}},
		},
	}

	t.Run("NoPlanIsNotFound", func(t *testing.T) {
		_, err := env.planner.AdjustPlan(ctx, "conv-1", "please change the salad")
		assert.True(t, apperr.IsNotFound(err))

		conv, err := env.convs.Get(ctx, "conv-1")
		require.NoError(t, err)
		assert.Empty(t, conv.Messages)
	})

	_, err := env.convs.SetPlan(ctx, "conv-1", stored)
	require.NoError(t, err)

	t.Run("ChangeTheSalad", func(t *testing.T) {
		plan, err := env.planner.AdjustPlan(ctx, "conv-1", "please change the salad")
		require.NoError(t, err)
		assert.Equal(t, "Tofu stir-fry", plan.Days[0].Meals[0].Name)
		assert.Equal(t, EstimateMacros("Tofu stir-fry", 600), plan.Days[0].Meals[0].Macros)
		assert.Equal(t, stored.Days[0].Meals[1], plan.Days[0].Meals[1])
		assert.Equal(t, stored.Days[1].Meals, plan.Days[1].Meals)

		conv, err := env.convs.Get(ctx, "conv-1")
		require.NoError(t, err)
		assert.Equal(t, "Tofu stir-fry", conv.CurrentPlan.Days[0].Meals[0].Name)
		require.Len(t, conv.Messages, 2)
		assert.Equal(t, "please change the salad", conv.Messages[0].Content)
	})

	t.Run("ByName", func(t *testing.T) {
		plan, err := env.planner.AdjustPlan(ctx, "conv-1", "I'm not in the mood for lentil soup")
		require.NoError(t, err)
		assert.Equal(t, "Quinoa bowl with roasted vegetables", plan.Days[1].Meals[0].Name)
		assert.Equal(t, "Tofu stir-fry", plan.Days[0].Meals[0].Name)
	})

	t.Run("NoMatchIsNoop", func(t *testing.T) {
		before, err := env.convs.Get(ctx, "conv-1")
		require.NoError(t, err)

		plan, err := env.planner.AdjustPlan(ctx, "conv-1", "looks great")
		require.NoError(t, err)
		assert.Equal(t, before.CurrentPlan.MealNames(), plan.MealNames())
	})

	t.Run("RequiresInstruction", func(t *testing.T) {
		_, err := env.planner.AdjustPlan(ctx, "conv-1", "  ")
		assert.True(t, apperr.IsValidation(err))
	})
}

func TestSuggestSwaps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(nil)
	_, err := env.profiles.Update(ctx, 1, profile.Patch{
		DietaryRestrictions: []string{"vegetarian"},
		Favorites:           []string{"Pho"},
	})
	require.NoError(t, err)

	swaps, err := env.planner.SuggestSwaps(ctx, 1, "pho", 0)
	require.NoError(t, err)
	assert.Len(t, swaps, defaultSwapLimit)
	for _, s := range swaps {
		assert.NotEqual(t, "pho", strings.ToLower(s))
		assert.True(t, Admissible(s, profile.MergedPreferences{Restrictions: []string{"vegetarian"}}), s)
	}

	swaps, err = env.planner.SuggestSwaps(ctx, 1, "Tofu stir-fry", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Pho", "Overnight oatmeal with berries"}, swaps)

	_, err = env.planner.SuggestSwaps(ctx, 1, "", 2)
	assert.True(t, apperr.IsValidation(err))
	_, err = env.planner.SuggestSwaps(ctx, 0, "Pho", 2)
	assert.True(t, apperr.IsValidation(err))
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("AIReply", func(t *testing.T) {
		ai := &MockTextGenerator{Content: "  Try adding lentils.  "}
		env := newTestEnv(ai)
		_, err := env.convs.Append(ctx, "c", conversation.Message{Role: conversation.RoleUser, Content: "earlier"})
		require.NoError(t, err)

		reply, err := env.planner.Chat(ctx, "c", "How do I get more protein?")
		require.NoError(t, err)
		assert.Equal(t, "Try adding lentils.", reply)
		assert.Contains(t, ai.Prompts[0], "user: earlier")
		assert.Contains(t, ai.Prompts[0], "user: How do I get more protein?")

		conv, err := env.convs.Get(ctx, "c")
		require.NoError(t, err)
		assert.Len(t, conv.Messages, 3)
	})

	t.Run("FallbackReply", func(t *testing.T) {
		env := newTestEnv(&MockTextGenerator{Err: errors.New("down")})
		reply, err := env.planner.Chat(ctx, "c", "hello")
		require.NoError(t, err)
		assert.Equal(t, ChatFallbackReply, reply)
	})

	t.Run("Validation", func(t *testing.T) {
		env := newTestEnv(nil)
		_, err := env.planner.Chat(ctx, "c", "")
		assert.True(t, apperr.IsValidation(err))
		_, err = env.planner.Chat(ctx, "", "hi")
		assert.True(t, apperr.IsValidation(err))
	})
}
