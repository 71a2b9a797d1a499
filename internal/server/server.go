package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"savviwell/internal/catalog"
	"savviwell/internal/clipper"
	"savviwell/internal/conversation"
	"savviwell/internal/nutrition"
	"savviwell/internal/pantry"
	"savviwell/internal/planner"
	"savviwell/internal/profile"
)

// FoodSearcher looks up foods in a nutrition database.
type FoodSearcher interface {
	SearchFoods(ctx context.Context, query string, pageSize int) ([]nutrition.Food, error)
}

// CatalogImporter adds a recipe page to the meal catalog.
type CatalogImporter interface {
	ClipURL(ctx context.Context, rawURL string) (clipper.ImportResult, error)
}

// Deps are the services the API exposes. Foods, Importer, Metrics and
// MetricsHandler are optional.
type Deps struct {
	Planner        *planner.Planner
	Profiles       *profile.Service
	Conversations  *conversation.Repository
	Pantry         *pantry.Repository
	PantryScanner  *pantry.Scanner
	PlateScanner   *nutrition.PlateScanner
	Foods          FoodSearcher
	Catalog        *catalog.Catalog
	Importer       CatalogImporter
	Metrics        HTTPMetrics
	MetricsHandler http.Handler
	DataDir        string
	Logger         *zap.Logger
}

// Server is the JSON API.
type Server struct {
	Deps
	logger   *zap.Logger
	validate *validator.Validate
	router   chi.Router
	server   *http.Server
}

// New creates a Server listening on addr.
func New(addr string, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopHTTPMetrics{}
	}
	s := &Server{
		Deps:     d,
		logger:   d.Logger,
		validate: validator.New(),
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger, s.Metrics))
	r.Use(chimiddleware.Recoverer)

	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
			r.Post("/feedback", s.handleFeedback)
		})

		r.Post("/plans", s.handleGeneratePlan)
		r.Post("/swaps", s.handleSwaps)

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetConversation)
			r.Delete("/", s.handleClearConversation)
			r.Post("/adjust", s.handleAdjust)
			r.Post("/messages", s.handleChat)
		})

		r.Get("/pantry", s.handleListPantry)
		r.Post("/pantry/items", s.handleAddPantryItem)
		r.Post("/pantry/scan", s.handlePantryScan)
		r.Post("/plate/scan", s.handlePlateScan)
		r.Get("/nutrition/search", s.handleNutritionSearch)

		r.Get("/catalog", s.handleListCatalog)
		r.Post("/catalog/import", s.handleCatalogImport)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, APIResponse{Error: "NOT_FOUND", Message: "route not found"})
	})
	return r
}
