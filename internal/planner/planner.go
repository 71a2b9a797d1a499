package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/catalog"
	"savviwell/internal/conversation"
	"savviwell/internal/llm"
	"savviwell/internal/mealplan"
	"savviwell/internal/pantry"
	"savviwell/internal/profile"
	"savviwell/internal/shared"
)

//go:embed plan_prompt.md
var planPrompt string

//go:embed chat_prompt.md
var chatPrompt string

var promptFuncs = template.FuncMap{"join": strings.Join}

var (
	planTemplate = template.Must(template.New("plan").Funcs(promptFuncs).Parse(planPrompt))
	chatTemplate = template.Must(template.New("chat").Funcs(promptFuncs).Parse(chatPrompt))
)

const (
	MaxDays           = 14
	MaxMealsPerDay    = 5
	defaultDays       = 7
	swapsPerMeal      = 3
	defaultSwapLimit  = 5
	maxSwapLimit      = 20
	chatHistoryWindow = 20
)

// ChatFallbackReply is sent when the assistant cannot be reached.
const ChatFallbackReply = "I can't reach the assistant right now. You can still generate a plan, ask for swaps or tell me which meal to change."

// Metrics observes planner outcomes.
type Metrics interface {
	ObservePlan(source mealplan.Source, elapsed time.Duration)
	ObserveCollaboratorFailure(collaborator string)
}

type nopMetrics struct{}

func (nopMetrics) ObservePlan(mealplan.Source, time.Duration) {}
func (nopMetrics) ObserveCollaboratorFailure(string) {}

// Deps are the collaborators of a Planner. AI, Usage and Metrics are optional.
type Deps struct {
	Profiles      *profile.Service
	Conversations *conversation.Repository
	Pantry        *pantry.Repository
	Catalog       *catalog.Catalog
	AI            llm.TextGenerator
	Random        RandomSource
	Usage         shared.UsageRecorder
	Metrics       Metrics
	Logger        *zap.Logger
	AITimeout     time.Duration
}

// Planner builds, adjusts and discusses meal plans.
type Planner struct {
	profiles      *profile.Service
	conversations *conversation.Repository
	pantry        *pantry.Repository
	catalog       *catalog.Catalog
	ai            llm.TextGenerator
	rnd           RandomSource
	usage         shared.UsageRecorder
	metrics       Metrics
	logger        *zap.Logger
	aiTimeout     time.Duration
	now           func() time.Time
}

// New creates a Planner.
func New(d Deps) *Planner {
	p := &Planner{
		profiles:      d.Profiles,
		conversations: d.Conversations,
		pantry:        d.Pantry,
		catalog:       d.Catalog,
		ai:            d.AI,
		rnd:           d.Random,
		usage:         d.Usage,
		metrics:       d.Metrics,
		logger:        d.Logger,
		aiTimeout:     d.AITimeout,
		now:           time.Now,
	}
	if p.rnd == nil {
		p.rnd = NewLockedRand(0)
	}
	if p.usage == nil {
		p.usage = shared.NopUsageRecorder{}
	}
	if p.metrics == nil {
		p.metrics = nopMetrics{}
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.aiTimeout <= 0 {
		p.aiTimeout = 20 * time.Second
	}
	return p
}

// PlanRequest are the inputs of GeneratePlan. Zero Days and MealsPerDay
// mean 7 days and one meal per meal type.
type PlanRequest struct {
	Audience       []int
	Days           int
	MealsPerDay    int
	MealTypes      []string
	Spice          string
	Cuisine        string
	ConversationID string
}

type planParams struct {
	audience    []int
	days        int
	mealsPerDay int
	types       []catalog.MealType
	tier        catalog.SpiceTier
	cuisine     string
}

func normalizeRequest(req PlanRequest) (planParams, error) {
	var pp planParams

	seen := make(map[int]bool, len(req.Audience))
	for _, id := range req.Audience {
		if id > 0 && !seen[id] {
			seen[id] = true
			pp.audience = append(pp.audience, id)
		}
	}
	if len(pp.audience) == 0 {
		return pp, apperr.NewValidationError("at least one valid user id is required")
	}

	for _, s := range req.MealTypes {
		if t, ok := catalog.ParseMealType(s); ok {
			pp.types = append(pp.types, t)
		}
	}
	if len(pp.types) == 0 {
		pp.types = append(pp.types, catalog.DefaultMealTypes...)
	}

	tier, err := catalog.ParseSpiceTier(req.Spice)
	if err != nil {
		return pp, apperr.NewValidationError("%s", err.Error())
	}
	pp.tier = tier

	pp.days = req.Days
	if pp.days == 0 {
		pp.days = defaultDays
	}
	pp.days = clamp(pp.days, 1, MaxDays)

	pp.mealsPerDay = req.MealsPerDay
	if pp.mealsPerDay == 0 {
		pp.mealsPerDay = len(pp.types)
	}
	pp.mealsPerDay = clamp(pp.mealsPerDay, 1, MaxMealsPerDay)

	pp.cuisine = strings.TrimSpace(req.Cuisine)
	return pp, nil
}

// GeneratePlan builds a plan for the audience. The AI is asked first; any
// failure or unusable answer falls back to the heuristic selector and is
// never returned as an error.
func (p *Planner) GeneratePlan(ctx context.Context, req PlanRequest) (*mealplan.Plan, error) {
	start := time.Now()
	pp, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	profiles, err := p.profiles.GetMany(ctx, pp.audience)
	if err != nil {
		return nil, err
	}
	prefs := profile.Merge(profiles...)
	pantryNames := p.pantryNames(ctx)
	perPerson := int(math.Round(float64(prefs.DailyCalorieGoal) / float64(pp.mealsPerDay)))

	pool := buildPool(poolInput{
		prefs:   prefs,
		entries: p.catalog.Filter(pp.types, pp.tier.Ceiling()),
		pantry:  pantryNames,
	})

	plan := p.aiPlan(ctx, pp, prefs, pantryNames, pool, perPerson)
	if plan == nil {
		plan = p.fallbackPlan(pp, pool, perPerson)
	}
	plan.Audience = pp.audience
	plan.GeneratedAt = p.now().UTC()
	p.attachSwaps(plan, prefs, pantryNames)

	if req.ConversationID != "" {
		msgs := []conversation.Message{
			{Role: conversation.RoleUser, Content: describeRequest(pp)},
			{Role: conversation.RoleAssistant, Content: summarizePlan(plan)},
		}
		if _, err := p.conversations.SetPlan(ctx, req.ConversationID, plan, msgs...); err != nil {
			return nil, err
		}
	}

	p.metrics.ObservePlan(plan.Source, time.Since(start))
	p.logger.Info("plan generated",
		zap.String("source", string(plan.Source)),
		zap.Ints("audience", plan.Audience),
		zap.Int("days", len(plan.Days)),
		zap.Int("meals_per_day", pp.mealsPerDay),
	)
	return plan, nil
}

func (p *Planner) pantryNames(ctx context.Context) []string {
	if p.pantry == nil {
		return nil
	}
	names, err := p.pantry.Names(ctx)
	if err != nil {
		p.logger.Warn("pantry unavailable, planning without it", zap.Error(err))
		return nil
	}
	return names
}

func (p *Planner) fallbackPlan(pp planParams, pool []string, perPerson int) *mealplan.Plan {
	plan := &mealplan.Plan{Source: mealplan.SourceFallback, Days: make([]mealplan.Day, 0, pp.days)}
	for d := 1; d <= pp.days; d++ {
		names := selectDay(pool, pp.mealsPerDay, p.rnd)
		plan.Days = append(plan.Days, p.buildDay(d, names, nil, pp, perPerson))
	}
	return plan
}

func (p *Planner) buildDay(day int, names []string, aiTypes []string, pp planParams, perPerson int) mealplan.Day {
	out := mealplan.Day{Day: day, Meals: make([]mealplan.Meal, 0, len(names)), Swaps: []mealplan.Swap{}}
	for i, name := range names {
		mt, spice := tagMeal(name, i, pp.types, pp.tier, p.catalog)
		if i < len(aiTypes) {
			if t, ok := catalog.ParseMealType(aiTypes[i]); ok && containsType(pp.types, t) {
				mt = t
			}
		}
		out.Meals = append(out.Meals, mealplan.Meal{
			Type:              mt,
			Name:              name,
			Spiciness:         spice,
			PerPersonCalories: perPerson,
			Macros:            EstimateMacros(name, perPerson),
		})
	}
	return out
}

func (p *Planner) attachSwaps(plan *mealplan.Plan, prefs profile.MergedPreferences, pantryNames []string) {
	catalogNames := p.catalog.Names()
	for d := range plan.Days {
		day := &plan.Days[d]
		exclude := make([]string, 0, len(day.Meals))
		for _, m := range day.Meals {
			exclude = append(exclude, m.Name)
		}
		day.Swaps = make([]mealplan.Swap, 0, len(day.Meals))
		for _, m := range day.Meals {
			day.Swaps = append(day.Swaps, mealplan.Swap{
				Meal: m.Name,
				Alternatives: GenerateSwaps(SwapInput{
					Prefs:     prefs,
					Favorites: prefs.Favorites,
					Catalog:   catalogNames,
					Pantry:    pantryNames,
					Exclude:   exclude,
					Max:       swapsPerMeal,
				}),
			})
		}
	}
}

type planPromptData struct {
	Days              int
	MealsPerDay       int
	MealTypes         []string
	Spice             catalog.SpiceTier
	Cuisine           string
	PerPersonCalories int
	Restrictions      []string
	Allergies         []string
	Dislikes          []string
	Favorites         []string
	Pantry            []string
	Candidates        []string
}

type aiDay struct {
	Day   int `json:"day"`
	Meals []struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"meals"`
}

// aiPlan asks the model for a plan and returns nil when the model is
// unavailable or its answer breaks any constraint.
func (p *Planner) aiPlan(ctx context.Context, pp planParams, prefs profile.MergedPreferences, pantryNames, pool []string, perPerson int) *mealplan.Plan {
	if p.ai == nil {
		return nil
	}

	types := make([]string, len(pp.types))
	for i, t := range pp.types {
		types[i] = string(t)
	}
	prompt, err := renderTemplate(planTemplate, planPromptData{
		Days:              pp.days,
		MealsPerDay:       pp.mealsPerDay,
		MealTypes:         types,
		Spice:             pp.tier,
		Cuisine:           pp.cuisine,
		PerPersonCalories: perPerson,
		Restrictions:      prefs.Restrictions,
		Allergies:         prefs.Allergies,
		Dislikes:          prefs.Dislikes,
		Favorites:         prefs.Favorites,
		Pantry:            pantryNames,
		Candidates:        pool,
	})
	if err != nil {
		p.logger.Error("failed to build plan prompt", zap.Error(err))
		return nil
	}

	content, ok := p.callAI(ctx, "Planner", prompt)
	if !ok {
		return nil
	}

	raw, err := llm.ExtractJSONArray(content)
	if err != nil {
		p.collaboratorFailed("ai", fmt.Errorf("failed to find plan JSON: %w", err))
		return nil
	}
	var days []aiDay
	if err := json.Unmarshal(raw, &days); err != nil {
		p.collaboratorFailed("ai", fmt.Errorf("failed to parse plan JSON: %w", err))
		return nil
	}
	if err := validateAIDays(days, pp, prefs); err != nil {
		p.collaboratorFailed("ai", err)
		return nil
	}

	plan := &mealplan.Plan{Source: mealplan.SourceAI, Days: make([]mealplan.Day, 0, len(days))}
	for i, d := range days {
		names := make([]string, len(d.Meals))
		aiTypes := make([]string, len(d.Meals))
		for j, m := range d.Meals {
			names[j] = strings.TrimSpace(m.Name)
			aiTypes[j] = m.Type
		}
		plan.Days = append(plan.Days, p.buildDay(i+1, names, aiTypes, pp, perPerson))
	}
	return plan
}

func validateAIDays(days []aiDay, pp planParams, prefs profile.MergedPreferences) error {
	if len(days) != pp.days {
		return fmt.Errorf("plan has %d days, want %d", len(days), pp.days)
	}
	for i, d := range days {
		if len(d.Meals) != pp.mealsPerDay {
			return fmt.Errorf("day %d has %d meals, want %d", i+1, len(d.Meals), pp.mealsPerDay)
		}
		seen := make(map[string]bool, len(d.Meals))
		for _, m := range d.Meals {
			name := strings.TrimSpace(m.Name)
			key := strings.ToLower(name)
			switch {
			case name == "":
				return fmt.Errorf("day %d has a meal without a name", i+1)
			case seen[key]:
				return fmt.Errorf("day %d repeats %q", i+1, name)
			case !Admissible(name, prefs):
				return fmt.Errorf("day %d includes inadmissible meal %q", i+1, name)
			}
			seen[key] = true
		}
	}
	return nil
}

// callAI runs one bounded model call and records its usage. ok is false
// on any failure, which has already been logged.
func (p *Planner) callAI(ctx context.Context, agent, prompt string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.aiTimeout)
	defer cancel()

	start := time.Now()
	resp, err := p.ai.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{AgentName: agent, Usage: resp.Usage, Latency: time.Since(start), Failed: err != nil}
	if rerr := p.usage.RecordMeta(meta); rerr != nil {
		p.logger.Warn("failed to record usage", zap.Error(rerr))
	}
	if err != nil {
		p.collaboratorFailed("ai", err)
		return "", false
	}
	return resp.Content, true
}

func (p *Planner) collaboratorFailed(name string, err error) {
	p.metrics.ObserveCollaboratorFailure(name)
	p.logger.Warn("collaborator failed, using fallback", zap.Error(apperr.NewCollaboratorError(name, err)))
}

// SuggestSwaps returns up to limit alternatives to mealName for a user.
func (p *Planner) SuggestSwaps(ctx context.Context, userID int, mealName string, limit int) ([]string, error) {
	mealName = strings.TrimSpace(mealName)
	if mealName == "" {
		return nil, apperr.NewValidationError("mealName is required")
	}
	if limit <= 0 {
		limit = defaultSwapLimit
	}
	limit = min(limit, maxSwapLimit)

	prof, err := p.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs := profile.Merge(prof)
	return GenerateSwaps(SwapInput{
		Prefs:     prefs,
		Favorites: prefs.Favorites,
		Catalog:   p.catalog.Names(),
		Pantry:    p.pantryNames(ctx),
		Exclude:   []string{mealName},
		Max:       limit,
	}), nil
}

// AdjustPlan applies a free-text instruction to the conversation's plan.
// It fails with a not found error when the conversation holds no plan and
// returns the plan unchanged when the instruction matches no meal.
func (p *Planner) AdjustPlan(ctx context.Context, conversationID, instruction string) (*mealplan.Plan, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, apperr.NewValidationError("instruction is required")
	}

	conv, err := p.conversations.Update(ctx, conversationID, func(c *conversation.Conversation) error {
		if c.CurrentPlan == nil {
			return apperr.NewNotFoundError("plan", "no current plan for conversation "+conversationID)
		}
		reply := "I couldn't find a meal to change in your plan."
		if adj, ok := applyAdjustment(c.CurrentPlan, instruction); ok {
			reply = fmt.Sprintf("Replaced %s with %s on day %d.", adj.Original, adj.Replaced, adj.Day)
		}
		c.Messages = append(c.Messages,
			conversation.Message{Role: conversation.RoleUser, Content: instruction},
			conversation.Message{Role: conversation.RoleAssistant, Content: reply},
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conv.CurrentPlan, nil
}

type chatPromptData struct {
	Plan    *mealplan.Plan
	History []conversation.Message
	Message string
}

// Chat answers a message in the context of the conversation's history and
// plan. The canned reply is used when the AI fails.
func (p *Planner) Chat(ctx context.Context, conversationID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.NewValidationError("message is required")
	}
	conv, err := p.conversations.Get(ctx, conversationID)
	if err != nil {
		return "", err
	}

	reply := ChatFallbackReply
	if p.ai != nil {
		history := conv.Messages
		if len(history) > chatHistoryWindow {
			history = history[len(history)-chatHistoryWindow:]
		}
		prompt, err := renderTemplate(chatTemplate, chatPromptData{Plan: conv.CurrentPlan, History: history, Message: message})
		if err != nil {
			p.logger.Error("failed to build chat prompt", zap.Error(err))
		} else if content, ok := p.callAI(ctx, "Chat", prompt); ok && strings.TrimSpace(content) != "" {
			reply = strings.TrimSpace(content)
		}
	}

	if _, err := p.conversations.Append(ctx, conversationID,
		conversation.Message{Role: conversation.RoleUser, Content: message},
		conversation.Message{Role: conversation.RoleAssistant, Content: reply},
	); err != nil {
		return "", err
	}
	return reply, nil
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func describeRequest(pp planParams) string {
	types := make([]string, len(pp.types))
	for i, t := range pp.types {
		types[i] = string(t)
	}
	msg := fmt.Sprintf("Plan %d day(s) with %d meal(s) per day (%s), %s spice", pp.days, pp.mealsPerDay, strings.Join(types, ", "), pp.tier)
	if pp.cuisine != "" {
		msg += ", " + pp.cuisine + " cuisine"
	}
	return msg + "."
}

func summarizePlan(plan *mealplan.Plan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is your %d-day plan.", len(plan.Days))
	for _, d := range plan.Days {
		names := make([]string, len(d.Meals))
		for i, m := range d.Meals {
			names[i] = m.Name
		}
		fmt.Fprintf(&sb, "\nDay %d: %s", d.Day, strings.Join(names, ", "))
	}
	return sb.String()
}

func containsType(types []catalog.MealType, t catalog.MealType) bool {
	for _, cur := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
