package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"savviwell/internal/catalog"
	"savviwell/internal/config"
	"savviwell/internal/planner"
	"savviwell/internal/shared"
	"savviwell/internal/storage"
)

type recordingUsage struct {
	metas []shared.AgentMeta
}

func (r *recordingUsage) RecordMeta(meta shared.AgentMeta) error {
	r.metas = append(r.metas, meta)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AIProvider:  config.ProviderNone,
		AITimeout:   time.Second,
		StoreDriver: config.StoreMemory,
		RandomSeed:  1,
	}
}

func TestNewMemory(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "catalog", "meals.yaml")

	a, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.AI)
	assert.Nil(t, a.Ledger)
	assert.Nil(t, a.Foods)
	assert.Empty(t, a.DataDir())

	require.NotNil(t, a.CatalogFile)
	assert.True(t, a.CatalogFile.Exists(), "catalog file should be seeded")
	seeded, err := a.CatalogFile.Load()
	require.NoError(t, err)
	assert.Equal(t, catalog.Default().Entries(), seeded)

	var out bytes.Buffer
	require.NoError(t, a.PrintPlan(ctx, &out, planner.PlanRequest{Audience: []int{1}, Days: 2}))
	assert.Contains(t, out.String(), "=== 2-DAY MEAL PLAN (fallback) ===")
	assert.Contains(t, out.String(), "Day 2")

	assert.ErrorIs(t, a.CleanupMetrics(&out, 30), ErrNoUsageLedger)
	assert.ErrorIs(t, a.PrintUsage(&out, 7), ErrNoUsageLedger)
}

func TestNewLoadsCatalogFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "meals.yaml")
	custom := []catalog.Entry{{Name: "Miso soup", Type: catalog.Lunch}}
	require.NoError(t, storage.NewCatalogFile(cfg.CatalogPath, zap.NewNop()).Save(custom))

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, custom, a.Catalog.Entries())
}

func TestNewSQLiteLedger(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = config.StoreSQLite
	cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "savviwell.db")

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Ledger)
	assert.Equal(t, filepath.Dir(cfg.DatabasePath), a.DataDir())

	extra := &recordingUsage{}
	a.AddUsageRecorder(extra)
	meta := shared.AgentMeta{AgentName: "Planner", Usage: shared.TokenUsage{PromptTokens: 10, CompletionTokens: 5, Model: "m"}}
	require.NoError(t, a.usage.RecordMeta(meta))
	assert.Len(t, extra.metas, 1)

	var out bytes.Buffer
	require.NoError(t, a.PrintUsage(&out, 7))
	assert.Contains(t, out.String(), "prompt=10 completion=5 calls=1 failed=0")

	out.Reset()
	require.NoError(t, a.CleanupMetrics(&out, 30))
	assert.Contains(t, out.String(), "Deleted 0 usage rows")
}

func TestImportCatalog(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Miso Soup</title></head><body></body></html>`))
	}))
	defer ts.Close()

	cfg := testConfig(t)
	cfg.CatalogPath = filepath.Join(t.TempDir(), "meals.yaml")
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	var out bytes.Buffer
	require.NoError(t, a.ImportCatalog(context.Background(), &out, ts.URL))
	assert.Contains(t, out.String(), `Added "Miso Soup" (lunch, spice 0).`)

	saved, err := a.CatalogFile.Load()
	require.NoError(t, err)
	assert.Equal(t, "Miso Soup", saved[len(saved)-1].Name)

	out.Reset()
	require.NoError(t, a.ImportCatalog(context.Background(), &out, ts.URL))
	assert.Contains(t, out.String(), "already in the catalog")
}

func TestWatchCatalogWithoutFile(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.NoError(t, a.WatchCatalog(context.Background()))
}
