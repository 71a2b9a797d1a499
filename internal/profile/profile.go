package profile

import (
	"math"
	"strings"
	"time"
)

// DefaultCalorieGoal is assigned to profiles created on first access.
const DefaultCalorieGoal = 2000

// UserProfile holds a user's dietary preferences and constraints.
type UserProfile struct {
	UserID              int       `json:"userId"`
	DailyCalorieGoal    float64   `json:"dailyCalorieGoal"`
	DietaryRestrictions []string  `json:"dietaryRestrictions"`
	Allergies           []string  `json:"allergies"`
	Dislikes            []string  `json:"dislikes"`
	Favorites           []string  `json:"favorites"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// NewUserProfile returns the defaults for id.
func NewUserProfile(id int, now time.Time) UserProfile {
	return UserProfile{
		UserID:              id,
		DailyCalorieGoal:    DefaultCalorieGoal,
		DietaryRestrictions: []string{},
		Allergies:           []string{},
		Dislikes:            []string{},
		Favorites:           []string{},
		UpdatedAt:           now,
	}
}

// MergedPreferences is the aggregate of a group of profiles.
type MergedPreferences struct {
	Dislikes         []string `json:"dislikes"`
	Restrictions     []string `json:"restrictions"`
	Allergies        []string `json:"allergies"`
	Favorites        []string `json:"favorites"`
	DailyCalorieGoal int      `json:"dailyCalorieGoal"`
}

// Merge combines profiles for group planning. Dislikes, restrictions and
// allergies are lower-cased; favorites keep the case they were first seen in.
func Merge(profiles ...UserProfile) MergedPreferences {
	var (
		dislikes, restrictions, allergies, favorites []string
		total                                        float64
	)
	for _, p := range profiles {
		dislikes = append(dislikes, p.Dislikes...)
		restrictions = append(restrictions, p.DietaryRestrictions...)
		allergies = append(allergies, p.Allergies...)
		favorites = append(favorites, p.Favorites...)
		total += p.DailyCalorieGoal
	}

	goal := DefaultCalorieGoal
	if len(profiles) > 0 {
		goal = int(math.Round(total / float64(len(profiles))))
	}

	return MergedPreferences{
		Dislikes:         lowerAll(Normalize(dislikes)),
		Restrictions:     lowerAll(Normalize(restrictions)),
		Allergies:        lowerAll(Normalize(allergies)),
		Favorites:        Normalize(favorites),
		DailyCalorieGoal: goal,
	}
}

// Normalize trims entries, drops blanks and removes case-insensitive
// duplicates, keeping the first occurrence. It never returns nil.
func Normalize(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Contains reports whether list holds s, ignoring case.
func Contains(list []string, s string) bool {
	return indexFold(list, s) >= 0
}

func indexFold(list []string, s string) int {
	s = strings.TrimSpace(s)
	for i, v := range list {
		if strings.EqualFold(v, s) {
			return i
		}
	}
	return -1
}

func addFold(list []string, s string) []string {
	if Contains(list, s) {
		return list
	}
	return append(list, strings.TrimSpace(s))
}

func removeFold(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if !strings.EqualFold(v, strings.TrimSpace(s)) {
			out = append(out, v)
		}
	}
	return out
}

func lowerAll(list []string) []string {
	for i, s := range list {
		list[i] = strings.ToLower(s)
	}
	return list
}
