package pantry

import (
	"context"
	"fmt"
	"strings"

	"savviwell/internal/apperr"
	"savviwell/internal/store"
)

const itemsKey = "items"

// Item is something the user has on hand.
type Item struct {
	ItemName   string   `json:"itemName"`
	Category   string   `json:"category"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Repository is the append-only pantry list.
type Repository struct {
	items *store.Collection[[]Item]
}

// NewRepository creates a Repository backed by s.
func NewRepository(s store.Store) *Repository {
	return &Repository{items: store.NewCollection[[]Item](s, "pantry")}
}

// List returns every item in insertion order.
func (r *Repository) List(ctx context.Context) ([]Item, error) {
	items, _, err := r.items.Get(ctx, itemsKey)
	if err != nil {
		return nil, apperr.NewInternalError(fmt.Errorf("failed to load pantry: %w", err))
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// Add validates item, fills defaults and appends it.
func (r *Repository) Add(ctx context.Context, item Item) (Item, error) {
	item.ItemName = strings.TrimSpace(item.ItemName)
	if item.ItemName == "" {
		return Item{}, apperr.NewValidationError("itemName is required")
	}
	if item.Quantity < 0 {
		return Item{}, apperr.NewValidationError("quantity must not be negative")
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if strings.TrimSpace(item.Unit) == "" {
		item.Unit = "pieces"
	}
	if err := r.Append(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Append adds items as given. All of them are written or none.
func (r *Repository) Append(ctx context.Context, items ...Item) error {
	if len(items) == 0 {
		return nil
	}
	_, err := r.items.Update(ctx, itemsKey, func(cur []Item, _ bool) ([]Item, error) {
		return append(cur, items...), nil
	})
	if err != nil {
		return apperr.NewInternalError(fmt.Errorf("failed to append pantry items: %w", err))
	}
	return nil
}

// Names returns the lower-cased item names used to rank meals.
func (r *Repository) Names(ctx context.Context) ([]string, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	names := make([]string, 0, len(items))
	for _, it := range items {
		n := strings.ToLower(strings.TrimSpace(it.ItemName))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names, nil
}
