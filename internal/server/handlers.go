package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"savviwell/internal/apperr"
	"savviwell/internal/mealplan"
	"savviwell/internal/metrics"
	"savviwell/internal/nutrition"
	"savviwell/internal/pantry"
	"savviwell/internal/planner"
	"savviwell/internal/profile"
)

type healthResponse struct {
	OK     bool              `json:"ok"`
	System metrics.SysHealth `json:"system"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.ok(w, healthResponse{OK: true, System: metrics.GetSysHealth(s.DataDir)})
}

func userIDParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidationError("userId must be an integer, got %q", raw)
	}
	return id, profile.ValidateID(id)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.Profiles.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, p)
}

type updateProfileRequest struct {
	DailyCalorieGoal    *float64 `json:"dailyCalorieGoal" validate:"omitempty,gt=0"`
	DietaryRestrictions []string `json:"dietaryRestrictions" validate:"omitempty,dive,max=100"`
	Allergies           []string `json:"allergies" validate:"omitempty,dive,max=100"`
	Dislikes            []string `json:"dislikes" validate:"omitempty,dive,max=100"`
	Favorites           []string `json:"favorites" validate:"omitempty,dive,max=200"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req updateProfileRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.Profiles.Update(r.Context(), id, profile.Patch{
		DailyCalorieGoal:    req.DailyCalorieGoal,
		DietaryRestrictions: req.DietaryRestrictions,
		Allergies:           req.Allergies,
		Dislikes:            req.Dislikes,
		Favorites:           req.Favorites,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, p)
}

type feedbackRequest struct {
	MealName string `json:"mealName" validate:"required,max=200"`
	Feedback string `json:"feedback" validate:"required"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req feedbackRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	fb, err := profile.ParseFeedback(req.Feedback)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.Profiles.RecordFeedback(r.Context(), id, req.MealName, fb)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, p)
}

type planRequest struct {
	UserIDs        []int    `json:"userIds" validate:"required,min=1"`
	Days           int      `json:"days" validate:"gte=0"`
	MealsPerDay    int      `json:"mealsPerDay" validate:"gte=0"`
	MealTypes      []string `json:"mealTypes"`
	Spice          string   `json:"spice"`
	Cuisine        string   `json:"cuisine" validate:"max=100"`
	ConversationID string   `json:"conversationId" validate:"max=128"`
}

type planResponse struct {
	ConversationID string         `json:"conversationId"`
	Plan           *mealplan.Plan `json:"plan"`
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	convID := strings.TrimSpace(req.ConversationID)
	if convID == "" {
		convID = uuid.NewString()
	}
	plan, err := s.Planner.GeneratePlan(r.Context(), planner.PlanRequest{
		Audience:       req.UserIDs,
		Days:           req.Days,
		MealsPerDay:    req.MealsPerDay,
		MealTypes:      req.MealTypes,
		Spice:          req.Spice,
		Cuisine:        req.Cuisine,
		ConversationID: convID,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, planResponse{ConversationID: convID, Plan: plan})
}

type swapsRequest struct {
	UserID   int    `json:"userId" validate:"required"`
	MealName string `json:"mealName" validate:"required,max=200"`
	Limit    int    `json:"limit" validate:"gte=0"`
}

type swapsResponse struct {
	Meal         string   `json:"meal"`
	Alternatives []string `json:"alternatives"`
}

func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	var req swapsRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	alts, err := s.Planner.SuggestSwaps(r.Context(), req.UserID, req.MealName, req.Limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, swapsResponse{Meal: req.MealName, Alternatives: alts})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	c, err := s.Conversations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, c)
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.Conversations.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Message: "conversation cleared"})
}

type adjustRequest struct {
	Instruction string `json:"instruction" validate:"required,max=1000"`
}

func (s *Server) handleAdjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.Planner.AdjustPlan(r.Context(), chi.URLParam(r, "id"), req.Instruction)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, plan)
}

type chatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	reply, err := s.Planner.Chat(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, chatResponse{Reply: reply})
}

func (s *Server) handleListPantry(w http.ResponseWriter, r *http.Request) {
	items, err := s.Pantry.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, items)
}

type pantryItemRequest struct {
	ItemName   string   `json:"itemName" validate:"required,max=200"`
	Category   string   `json:"category" validate:"max=100"`
	Quantity   float64  `json:"quantity" validate:"gte=0"`
	Unit       string   `json:"unit" validate:"max=50"`
	Confidence *float64 `json:"confidence" validate:"omitempty,gte=0,lte=1"`
}

func (s *Server) handleAddPantryItem(w http.ResponseWriter, r *http.Request) {
	var req pantryItemRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.Pantry.Add(r.Context(), pantry.Item{
		ItemName:   req.ItemName,
		Category:   req.Category,
		Quantity:   req.Quantity,
		Unit:       req.Unit,
		Confidence: req.Confidence,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: item})
}

type imageRequest struct {
	Image       string `json:"image" validate:"required"`
	Description string `json:"description" validate:"max=500"`
}

func (s *Server) handlePantryScan(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.PantryScanner.Scan(r.Context(), req.Image)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, res)
}

func (s *Server) handlePlateScan(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	est, err := s.PlateScanner.Scan(r.Context(), req.Image, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, est)
}

func (s *Server) handleNutritionSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.fail(w, r, apperr.NewValidationError("q is required"))
		return
	}
	pageSize := 10
	if raw := r.URL.Query().Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			s.fail(w, r, apperr.NewValidationError("pageSize must be between 1 and 50"))
			return
		}
		pageSize = n
	}
	if s.Foods == nil {
		s.fail(w, r, apperr.NewCollaboratorError("nutrition lookup", nutrition.ErrNoAPIKey))
		return
	}
	foods, err := s.Foods.SearchFoods(r.Context(), q, pageSize)
	if err != nil {
		s.fail(w, r, apperr.NewCollaboratorError("nutrition lookup", err))
		return
	}
	s.ok(w, foods)
}

func (s *Server) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	s.ok(w, s.Catalog.Entries())
}

type importRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (s *Server) handleCatalogImport(w http.ResponseWriter, r *http.Request) {
	if s.Importer == nil {
		s.fail(w, r, apperr.NewNotFoundError("catalog import", "importer is not configured"))
		return
	}
	var req importRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.Importer.ClipURL(r.Context(), req.URL)
	if err != nil {
		var appErr *apperr.AppError
		if !errors.As(err, &appErr) {
			err = apperr.NewInternalError(err)
		}
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Added {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, APIResponse{Success: true, Data: res})
}
