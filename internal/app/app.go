package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"savviwell/internal/catalog"
	"savviwell/internal/clipper"
	"savviwell/internal/config"
	"savviwell/internal/conversation"
	"savviwell/internal/database"
	"savviwell/internal/llm"
	"savviwell/internal/metrics"
	"savviwell/internal/nutrition"
	"savviwell/internal/pantry"
	"savviwell/internal/planner"
	"savviwell/internal/profile"
	"savviwell/internal/shared"
	"savviwell/internal/storage"
	"savviwell/internal/store"
)

// ErrNoUsageLedger is returned by ledger operations when no SQLite database is open.
var ErrNoUsageLedger = errors.New("usage ledger requires STORE_DRIVER=sqlite")

// App holds the application's dependencies.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Store       store.Store
	DB          *database.DB
	Catalog     *catalog.Catalog
	CatalogFile *storage.CatalogFile
	AI          llm.Client
	Collector   *metrics.Collector
	Ledger      *metrics.Store

	Profiles      *profile.Service
	Conversations *conversation.Repository
	Pantry        *pantry.Repository
	Planner       *planner.Planner
	PantryScanner *pantry.Scanner
	PlateScanner  *nutrition.PlateScanner
	Foods         *nutrition.Client
	Clipper       *clipper.Clipper

	usage *usageFanout
}

// New wires every service from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Collector: metrics.NewCollector(),
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	if err := a.loadCatalog(); err != nil {
		a.Close()
		return nil, err
	}

	ai, err := llm.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.AIProvider, err)
	}
	a.AI = ai

	a.usage = &usageFanout{tee: metrics.Tee{a.Collector}}
	if a.Ledger != nil {
		a.usage.add(a.Ledger)
	}

	var (
		text   llm.TextGenerator
		vision llm.VisionGenerator
	)
	if ai != nil {
		text, vision = ai, ai
	}

	a.Profiles = profile.NewService(a.Store, logger)
	a.Conversations = conversation.NewRepository(a.Store)
	a.Pantry = pantry.NewRepository(a.Store)
	a.Planner = planner.New(planner.Deps{
		Profiles:      a.Profiles,
		Conversations: a.Conversations,
		Pantry:        a.Pantry,
		Catalog:       a.Catalog,
		AI:            text,
		Random:        planner.NewLockedRand(cfg.RandomSeed),
		Usage:         a.usage,
		Metrics:       a.Collector,
		Logger:        logger,
		AITimeout:     cfg.AITimeout,
	})
	a.PantryScanner = pantry.NewScanner(a.Pantry, vision, a.usage, cfg.AITimeout, logger)

	var foods nutrition.MacroEstimator
	if cfg.USDAAPIKey != "" {
		a.Foods = nutrition.NewClient(cfg.USDAAPIKey, cfg.USDABaseURL)
		foods = a.Foods
	}
	a.PlateScanner = nutrition.NewPlateScanner(vision, foods, a.usage, cfg.AITimeout, logger)

	var saver clipper.CatalogSaver
	if a.CatalogFile != nil {
		saver = a.CatalogFile
	}
	a.Clipper = clipper.NewClipper(a.Catalog, saver, text, logger)

	logger.Info("app initialized",
		zap.String("store", cfg.StoreDriver),
		zap.String("ai_provider", cfg.AIProvider),
		zap.Int("catalog_meals", len(a.Catalog.Entries())),
		zap.Bool("usage_ledger", a.Ledger != nil),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.StoreDriver {
	case config.StoreSQLite:
		db, err := database.NewDB(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		a.Store = store.NewSQLite(db.SQL)
		a.Ledger = metrics.NewStore(db.SQL)
	case config.StoreRedis:
		r, err := store.NewRedis(ctx, a.Config.RedisAddr, a.Config.RedisPassword, a.Config.RedisDB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.Store = r
	default:
		a.Store = store.NewMemory()
	}
	return nil
}

// loadCatalog starts from the built-in catalog. A configured catalog file
// replaces it, or is seeded with it when the file does not exist yet.
func (a *App) loadCatalog() error {
	a.Catalog = catalog.Default()
	if a.Config.CatalogPath == "" {
		return nil
	}

	a.CatalogFile = storage.NewCatalogFile(a.Config.CatalogPath, a.Logger)
	if !a.CatalogFile.Exists() {
		if err := a.CatalogFile.Save(a.Catalog.Entries()); err != nil {
			return fmt.Errorf("failed to seed catalog file: %w", err)
		}
		return nil
	}

	entries, err := a.CatalogFile.Load()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	a.Catalog.Replace(entries)
	return nil
}

// WatchCatalog reloads the catalog whenever its file changes. It blocks
// until ctx is done and returns at once when no file is configured.
func (a *App) WatchCatalog(ctx context.Context) error {
	if a.CatalogFile == nil {
		return nil
	}
	return a.CatalogFile.Watch(ctx, a.Catalog.Replace)
}

// AddUsageRecorder registers another receiver of AI usage records.
func (a *App) AddUsageRecorder(r shared.UsageRecorder) {
	a.usage.add(r)
}

// DataDir is the directory holding the database, for health reports.
func (a *App) DataDir() string {
	if a.DB == nil {
		return ""
	}
	return filepath.Dir(a.Config.DatabasePath)
}

// Close releases the store, database and AI client.
func (a *App) Close() {
	if a.AI != nil {
		if err := a.AI.Close(); err != nil {
			a.Logger.Warn("failed to close ai client", zap.Error(err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

type usageFanout struct {
	mu  sync.RWMutex
	tee metrics.Tee
}

func (f *usageFanout) add(r shared.UsageRecorder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tee = append(f.tee, r)
}

func (f *usageFanout) RecordMeta(meta shared.AgentMeta) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.tee.RecordMeta(meta)
}
