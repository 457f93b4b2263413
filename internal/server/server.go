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

	"github.com/ziadkadry99/studyaid/internal/analysis"
	"github.com/ziadkadry99/studyaid/internal/audit"
	"github.com/ziadkadry99/studyaid/internal/auth"
	"github.com/ziadkadry99/studyaid/internal/db"
	"github.com/ziadkadry99/studyaid/internal/flashcards"
	"github.com/ziadkadry99/studyaid/internal/logging"
	"github.com/ziadkadry99/studyaid/internal/materials"
	"github.com/ziadkadry99/studyaid/internal/study"
	"github.com/ziadkadry99/studyaid/internal/studyview"
)

// Config holds server configuration.
type Config struct {
	Port      int
	ClientURL string // CORS origin and post-login redirect
}

// Deps are the stores and services the routes are built from.
type Deps struct {
	DB         *db.DB
	Sessions   *auth.Sessions
	Users      *auth.Store
	Identity   auth.Identity // nil when Google sign-in is not configured
	Materials  *materials.Store
	Index      *materials.Index // nil when no embedder is configured
	Flashcards *flashcards.Store
	Analyzer   *study.Analyzer
	Activity   *audit.Store
}

// Server is the studyaid HTTP server: JSON API, study pages and their
// websocket sessions.
type Server struct {
	cfg        Config
	deps       Deps
	log        zerolog.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with every route registered.
func New(cfg Config, deps Deps, log zerolog.Logger) *Server {
	s := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.With().Str("component", "server").Logger(),
	}
	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.log))
	r.Use(middleware.Recoverer)

	// The browser client sends the session cookie cross-origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.deps.Sessions != nil && s.deps.Users != nil {
		r.Use(auth.LoadUser(s.deps.Sessions, s.deps.Users))
	}

	health := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
	r.Get("/healthz", health)
	r.Get("/api/health", health)

	r.Group(func(r chi.Router) {
		// Keyword extraction and flashcard generation wait on the model.
		r.Use(middleware.Timeout(120 * time.Second))

		if s.deps.Sessions != nil && s.deps.Users != nil {
			auth.RegisterRoutes(r, auth.RoutesDeps{
				Store:     s.deps.Users,
				Sessions:  s.deps.Sessions,
				Identity:  s.deps.Identity,
				ClientURL: s.cfg.ClientURL,
			})
		}
		if s.deps.Materials != nil {
			materials.RegisterRoutes(r, materials.RoutesDeps{
				Store:    s.deps.Materials,
				Index:    s.deps.Index,
				Activity: s.deps.Activity,
			})
		}
		if s.deps.Analyzer != nil && s.deps.Materials != nil {
			analysis.RegisterRoutes(r, analysis.RoutesDeps{
				Analyzer:  s.deps.Analyzer,
				Materials: s.deps.Materials,
				Index:     s.deps.Index,
				Activity:  s.deps.Activity,
			})
		}
		if s.deps.Flashcards != nil && s.deps.Materials != nil {
			flashcards.RegisterRoutes(r, flashcards.RoutesDeps{
				Store:     s.deps.Flashcards,
				Materials: s.deps.Materials,
				Analyzer:  s.deps.Analyzer,
				Activity:  s.deps.Activity,
			})
		}
		if s.deps.Activity != nil {
			audit.RegisterRoutes(r, s.deps.Activity)
		}
	})

	// Study pages hold a websocket open, so they sit outside the timeout.
	if s.deps.Materials != nil {
		studyview.New(s.deps.Materials, s.cfg.ClientURL).RegisterRoutes(r)
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.deps.DB }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      150 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.log.Info().Str("addr", addr).Msg("studyaid server listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
