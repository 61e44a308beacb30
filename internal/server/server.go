// Package server provides the HTTP server and routing for the crypto advisor.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/config"
	"github.com/Meza27/cryptoadvisor/internal/domain"
	"github.com/Meza27/cryptoadvisor/internal/modules/history"
	historyhandlers "github.com/Meza27/cryptoadvisor/internal/modules/history/handlers"
	"github.com/Meza27/cryptoadvisor/internal/modules/portfolio"
	portfoliohandlers "github.com/Meza27/cryptoadvisor/internal/modules/portfolio/handlers"
	"github.com/Meza27/cryptoadvisor/internal/modules/recommendations"
	recommendationshandlers "github.com/Meza27/cryptoadvisor/internal/modules/recommendations/handlers"
	"github.com/Meza27/cryptoadvisor/internal/modules/scoring"
	scoringhandlers "github.com/Meza27/cryptoadvisor/internal/modules/scoring/handlers"
)

// Config holds everything the server needs to route requests.
type Config struct {
	Log                    zerolog.Logger
	Config                 *config.Config
	Gateway                domain.MarketGateway
	ScoringService         *scoring.Service
	RecommendationsService *recommendations.Service
	PortfolioService       *portfolio.Service
	HistoryRepo            *history.Repository
	ModelVersion           string
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	gateway        domain.MarketGateway
	scoring        *scoring.Service
	recs           *recommendations.Service
	portfolio      *portfolio.Service
	historyRepo    *history.Repository
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		gateway:        cfg.Gateway,
		scoring:        cfg.ScoringService,
		recs:           cfg.RecommendationsService,
		portfolio:      cfg.PortfolioService,
		historyRepo:    cfg.HistoryRepo,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.ModelVersion),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Router exposes the chi router, mainly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleDashboard)

	s.router.Route("/api", func(r chi.Router) {
		// History is optional wiring. Without a repo, predictions are not
		// recorded and the history endpoint is not registered.
		var recorder scoringhandlers.Recorder
		if s.historyRepo != nil {
			recorder = s.historyRepo
			historyhandlers.NewHandler(s.historyRepo, s.log).RegisterRoutes(r)
		}
		scoringhandlers.NewHandler(s.scoring, recorder, s.log).RegisterRoutes(r)
		recommendationshandlers.NewHandler(s.recs, s.log).RegisterRoutes(r)
		portfoliohandlers.NewHandler(s.portfolio, s.log).RegisterRoutes(r)

		r.Get("/coins/{id}/history", s.handleCoinHistory)
		r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
