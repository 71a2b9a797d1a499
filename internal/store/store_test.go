package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"savviwell/internal/database"
)

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("PutGet", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "profile:1", []byte(`{"a":1}`)))
		got, err := s.Get(ctx, "profile:1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "profile:1", []byte(`{"a":2}`)))
		got, err := s.Get(ctx, "profile:1")
		require.NoError(t, err)
		assert.Equal(t, `{"a":2}`, string(got))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "profile:1"))
		_, err := s.Get(ctx, "profile:1")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "profile:1"))
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	runStoreContract(t, m)

	t.Run("CopiesValues", func(t *testing.T) {
		ctx := context.Background()
		buf := []byte("abc")
		require.NoError(t, m.Put(ctx, "k", buf))
		buf[0] = 'z'
		got, err := m.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(got))
	})
}

func TestSQLite(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runStoreContract(t, NewSQLite(db.SQL))
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	r, err := NewRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 15)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	runStoreContract(t, r)
}
