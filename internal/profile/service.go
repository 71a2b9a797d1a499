package profile

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/store"
)

// Feedback is a user's reaction to a meal.
type Feedback string

const (
	Like    Feedback = "like"
	Dislike Feedback = "dislike"
)

// ParseFeedback accepts "like" or "dislike" in any case.
func ParseFeedback(s string) (Feedback, error) {
	switch f := Feedback(strings.ToLower(strings.TrimSpace(s))); f {
	case Like, Dislike:
		return f, nil
	}
	return "", apperr.NewValidationError("feedback must be like or dislike, got %q", s)
}

// Patch carries the fields of an update. Nil fields are left unchanged.
type Patch struct {
	DailyCalorieGoal    *float64
	DietaryRestrictions []string
	Allergies           []string
	Dislikes            []string
	Favorites           []string
}

// Service manages user profiles. Every mutation runs under the profile's lock.
type Service struct {
	profiles *store.Collection[UserProfile]
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a profile service backed by s.
func NewService(s store.Store, logger *zap.Logger) *Service {
	return &Service{
		profiles: store.NewCollection[UserProfile](s, "profile"),
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateID rejects non-positive user ids.
func ValidateID(id int) error {
	if id <= 0 {
		return apperr.NewValidationError("userId must be a positive integer, got %d", id)
	}
	return nil
}

// Get returns the profile for id, creating it with defaults on first access.
func (s *Service) Get(ctx context.Context, id int) (UserProfile, error) {
	if err := ValidateID(id); err != nil {
		return UserProfile{}, err
	}

	p, ok, err := s.profiles.Get(ctx, key(id))
	if err != nil {
		return UserProfile{}, apperr.NewInternalError(fmt.Errorf("failed to load profile %d: %w", id, err))
	}
	if ok {
		return p, nil
	}

	p, err = s.profiles.Update(ctx, key(id), func(cur UserProfile, exists bool) (UserProfile, error) {
		if exists {
			return cur, nil
		}
		return NewUserProfile(id, s.now()), nil
	})
	if err != nil {
		return UserProfile{}, apperr.NewInternalError(fmt.Errorf("failed to create profile %d: %w", id, err))
	}
	return p, nil
}

// GetMany resolves every id, creating missing profiles.
func (s *Service) GetMany(ctx context.Context, ids []int) ([]UserProfile, error) {
	out := make([]UserProfile, 0, len(ids))
	for _, id := range ids {
		p, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Update applies patch to the profile for id.
func (s *Service) Update(ctx context.Context, id int, patch Patch) (UserProfile, error) {
	if err := ValidateID(id); err != nil {
		return UserProfile{}, err
	}
	if patch.DailyCalorieGoal != nil && *patch.DailyCalorieGoal <= 0 {
		return UserProfile{}, apperr.NewValidationError("dailyCalorieGoal must be positive")
	}

	return s.mutate(ctx, id, func(p *UserProfile) {
		if patch.DailyCalorieGoal != nil {
			p.DailyCalorieGoal = *patch.DailyCalorieGoal
		}
		if patch.DietaryRestrictions != nil {
			p.DietaryRestrictions = Normalize(patch.DietaryRestrictions)
		}
		if patch.Allergies != nil {
			p.Allergies = Normalize(patch.Allergies)
		}
		if patch.Dislikes != nil {
			p.Dislikes = Normalize(patch.Dislikes)
		}
		if patch.Favorites != nil {
			p.Favorites = Normalize(patch.Favorites)
		}
	})
}

// RecordFeedback moves meal into favorites on a like and into dislikes on
// a dislike, removing it from the opposite list.
func (s *Service) RecordFeedback(ctx context.Context, id int, meal string, fb Feedback) (UserProfile, error) {
	if err := ValidateID(id); err != nil {
		return UserProfile{}, err
	}
	meal = strings.TrimSpace(meal)
	if meal == "" {
		return UserProfile{}, apperr.NewValidationError("mealName is required")
	}
	if fb != Like && fb != Dislike {
		return UserProfile{}, apperr.NewValidationError("feedback must be like or dislike, got %q", fb)
	}

	p, err := s.mutate(ctx, id, func(p *UserProfile) {
		if fb == Like {
			p.Favorites = addFold(p.Favorites, meal)
			p.Dislikes = removeFold(p.Dislikes, meal)
			return
		}
		p.Dislikes = addFold(p.Dislikes, meal)
		p.Favorites = removeFold(p.Favorites, meal)
	})
	if err != nil {
		return UserProfile{}, err
	}
	s.logger.Info("feedback recorded", zap.Int("user_id", id), zap.String("meal", meal), zap.String("feedback", string(fb)))
	return p, nil
}

func (s *Service) mutate(ctx context.Context, id int, fn func(p *UserProfile)) (UserProfile, error) {
	p, err := s.profiles.Update(ctx, key(id), func(cur UserProfile, exists bool) (UserProfile, error) {
		if !exists {
			cur = NewUserProfile(id, s.now())
		}
		fn(&cur)
		cur.UpdatedAt = s.now()
		return cur, nil
	})
	if err != nil {
		return UserProfile{}, apperr.NewInternalError(fmt.Errorf("failed to update profile %d: %w", id, err))
	}
	return p, nil
}

func key(id int) string {
	return strconv.Itoa(id)
}
