package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"savviwell/internal/apperr"
	"savviwell/internal/mealplan"
	"savviwell/internal/store"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a server-held exchange plus the most recent plan.
type Conversation struct {
	ID          string         `json:"id"`
	Messages    []Message      `json:"messages"`
	CurrentPlan *mealplan.Plan `json:"currentPlan,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Repository provides access to conversations.
type Repository struct {
	items *store.Collection[Conversation]
	now   func() time.Time
}

// NewRepository creates a Repository backed by s.
func NewRepository(s store.Store) *Repository {
	return &Repository{
		items: store.NewCollection[Conversation](s, "conversation"),
		now:   time.Now,
	}
}

// ValidateID rejects blank conversation ids.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apperr.NewValidationError("conversationId is required")
	}
	return nil
}

// Get returns the conversation for id. A conversation that was never
// written is returned empty, not as an error.
func (r *Repository) Get(ctx context.Context, id string) (Conversation, error) {
	if err := ValidateID(id); err != nil {
		return Conversation{}, err
	}
	c, ok, err := r.items.Get(ctx, id)
	if err != nil {
		return Conversation{}, apperr.NewInternalError(fmt.Errorf("failed to load conversation %s: %w", id, err))
	}
	if !ok {
		return Conversation{ID: id, Messages: []Message{}}, nil
	}
	return c, nil
}

// Update runs fn on the conversation for id under its lock, creating it
// when absent. If fn fails the stored conversation is left untouched.
func (r *Repository) Update(ctx context.Context, id string, fn func(c *Conversation) error) (Conversation, error) {
	if err := ValidateID(id); err != nil {
		return Conversation{}, err
	}
	c, err := r.items.Update(ctx, id, func(cur Conversation, exists bool) (Conversation, error) {
		if !exists {
			cur = Conversation{ID: id, Messages: []Message{}}
		}
		if err := fn(&cur); err != nil {
			return Conversation{}, err
		}
		cur.UpdatedAt = r.now()
		return cur, nil
	})
	if err != nil {
		var appErr *apperr.AppError
		if errors.As(err, &appErr) {
			return Conversation{}, err
		}
		return Conversation{}, apperr.NewInternalError(fmt.Errorf("failed to update conversation %s: %w", id, err))
	}
	return c, nil
}

// Append adds messages to the conversation for id.
func (r *Repository) Append(ctx context.Context, id string, msgs ...Message) (Conversation, error) {
	return r.Update(ctx, id, func(c *Conversation) error {
		c.Messages = append(c.Messages, msgs...)
		return nil
	})
}

// SetPlan stores plan as the current plan of id and records the messages.
func (r *Repository) SetPlan(ctx context.Context, id string, plan *mealplan.Plan, msgs ...Message) (Conversation, error) {
	return r.Update(ctx, id, func(c *Conversation) error {
		c.CurrentPlan = plan.Clone()
		c.Messages = append(c.Messages, msgs...)
		return nil
	})
}

// Clear forgets the conversation for id.
func (r *Repository) Clear(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := r.items.Delete(ctx, id); err != nil {
		return apperr.NewInternalError(fmt.Errorf("failed to clear conversation %s: %w", id, err))
	}
	return nil
}
