package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection stores JSON encoded values of type T under a namespace.
// Update runs its read-modify-write under a per-id lock, so there is at
// most one writer per id inside the process.
type Collection[T any] struct {
	store     Store
	namespace string
	locks     *KeyedMutex
}

// NewCollection creates a collection whose keys are "<namespace>:<id>".
func NewCollection[T any](s Store, namespace string) *Collection[T] {
	return &Collection[T]{store: s, namespace: namespace, locks: NewKeyedMutex()}
}

func (c *Collection[T]) key(id string) string {
	return c.namespace + ":" + id
}

// Get returns the value for id and whether it exists.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	data, err := c.store.Get(ctx, c.key(id))
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, fmt.Errorf("failed to decode %s: %w", c.key(id), err)
	}
	return v, true, nil
}

// Put overwrites the value for id.
func (c *Collection[T]) Put(ctx context.Context, id string, v T) error {
	unlock := c.locks.Lock(id)
	defer unlock()
	return c.put(ctx, id, v)
}

func (c *Collection[T]) put(ctx context.Context, id string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key(id), err)
	}
	return c.store.Put(ctx, c.key(id), data)
}

// Delete removes id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()
	return c.store.Delete(ctx, c.key(id))
}

// Update loads id, passes it to fn and stores the result. When fn returns
// an error nothing is written and the error is returned unchanged.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(cur T, exists bool) (T, error)) (T, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	var zero T
	cur, exists, err := c.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	next, err := fn(cur, exists)
	if err != nil {
		return zero, err
	}
	if err := c.put(ctx, id, next); err != nil {
		return zero, err
	}
	return next, nil
}
