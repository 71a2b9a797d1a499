package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"savviwell/internal/catalog"
)

func TestCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.yaml")
	file := NewCatalogFile(path, zap.NewNop())

	entries := []catalog.Entry{
		{Name: "Tofu stir-fry", Type: catalog.Dinner, Spice: 1},
		{Name: "Banana pancakes", Type: catalog.Breakfast, Spice: 0},
	}

	t.Run("CheckExists-False", func(t *testing.T) {
		assert.False(t, file.Exists())
		_, err := file.Load()
		assert.Error(t, err)
	})

	t.Run("Save", func(t *testing.T) {
		require.NoError(t, file.Save(entries))
		assert.True(t, file.Exists())
		_, err := os.Stat(path + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Load", func(t *testing.T) {
		got, err := file.Load()
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("RejectsUnknownType", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("meals:\n  - name: Toast\n    mealType: brunch\n    spiceLevel: 0\n"), 0644))
		_, err := NewCatalogFile(bad, zap.NewNop()).Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "brunch")
	})

	t.Run("RejectsSpiceOutOfRange", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("meals:\n  - name: Ghost pepper wings\n    mealType: snack\n    spiceLevel: 5\n"), 0644))
		_, err := NewCatalogFile(bad, zap.NewNop()).Load()
		assert.Error(t, err)
	})
}

func TestCatalogFileWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	file := NewCatalogFile(path, zap.NewNop())
	require.NoError(t, file.Save([]catalog.Entry{{Name: "Trail mix", Type: catalog.Snack}}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []catalog.Entry, 4)
	done := make(chan error, 1)
	go func() {
		done <- file.Watch(ctx, func(e []catalog.Entry) { changes <- e })
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	updated := []catalog.Entry{
		{Name: "Trail mix", Type: catalog.Snack},
		{Name: "Berry sorbet", Type: catalog.Dessert},
	}
	require.NoError(t, file.Save(updated))

	select {
	case got := <-changes:
		assert.Equal(t, updated, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for catalog reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
