package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/ingest/hae"
	liftmcp "github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config holds the request-level settings of the API.
type Config struct {
	APIKey        string
	ExtendSeconds int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	progress *progress.Service
	sessions *session.Manager
	hae      *hae.Provider
	alpha    *alpha.Provider
	whois    WhoIser
	mcp      http.Handler
	log      *slog.Logger
	cfg      Config
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, svc *progress.Service, sessions *session.Manager, haeProvider *hae.Provider, alphaProvider *alpha.Provider, cfg Config, log *slog.Logger) *Server {
	if cfg.ExtendSeconds <= 0 {
		cfg.ExtendSeconds = session.DefaultExtendSeconds
	}
	s := &Server{
		db:       db,
		progress: svc,
		sessions: sessions,
		hae:      haeProvider,
		alpha:    alphaProvider,
		log:      log,
		cfg:      cfg,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps s in an http.Server whose Shutdown also ends the live
// sessions, so open event streams return instead of holding Shutdown.
func (s *Server) HTTPServer() *http.Server {
	hs := &http.Server{Handler: s}
	if s.sessions != nil {
		hs.RegisterOnShutdown(s.sessions.Close)
	}
	return hs
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Ingest endpoints (API key required)
		r.Route("/ingest", func(r chi.Router) {
			r.Use(APIKeyAuth(s.cfg.APIKey))
			r.Post("/alpha", s.handleAlphaIngest)
			r.Post("/hae", s.handleHAEIngest)
		})

		r.Get("/me", s.handleMe)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)
		r.Put("/profile/units", s.handleUpdateUnits)

		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/routines", s.handleListRoutines)
		r.Post("/routines", s.handleCreateRoutine)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Post("/", s.handleStartSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDiscardSession)
				r.Get("/events", s.handleSessionEvents)
				r.Post("/sets/{exercise}/{set}/toggle", s.handleToggleSet)
				r.Post("/sets/{exercise}/{set}/adjust", s.handleAdjustSet)
				r.Post("/pause", s.handlePauseResume)
				r.Post("/rest/extend", s.handleExtendRest)
				r.Post("/rest/skip", s.handleSkipRest)
				r.Post("/finish", s.handleFinishSession)
			})
		})

		r.Get("/workouts", s.handleQueryWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Delete("/workouts/{id}", s.handleDeleteWorkout)
		r.Get("/exercise-logs", s.handleQueryExerciseLogs)
		r.Get("/measurements", s.handleQueryMeasurements)
		r.Post("/measurements", s.handleCreateMeasurement)
		r.Get("/training-summary", s.handleTrainingSummary)
		r.Get("/exercise-progression", s.handleExerciseProgression)

		r.Get("/progress", s.handleProgress)
		r.Get("/history", s.handleHistory)
		r.Get("/records", s.handleRecords)
		r.Get("/streak", s.handleStreak)
		r.Get("/body-weight", s.handleBodyWeight)
		r.Get("/nutrition", s.handleNutrition)
		r.Post("/nutrition", s.handleCreateNutrition)
		r.Delete("/nutrition/{id}", s.handleDeleteNutrition)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/stats", s.handleStats)
		r.Get("/import-logs", s.handleImportLogs)
	})

	s.router.Handle("/mcp", http.HandlerFunc(s.handleMCP))
}

// SetTailscale switches request identity from the dev user to the tailnet
// caller resolved by lc.
func (s *Server) SetTailscale(lc WhoIser) {
	s.whois = lc
}

// SetMCP mounts the MCP streamable HTTP transport at /mcp. Tool calls run
// as the user resolved by the identity middleware.
func (s *Server) SetMCP(m *mcpserver.MCPServer) {
	s.mcp = mcpserver.NewStreamableHTTPServer(m,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return liftmcp.WithUserID(ctx, userIDFromContext(r))
		}),
	)
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "mcp not enabled"})
		return
	}
	s.mcp.ServeHTTP(w, r)
}

// SetFrontend mounts the SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		// Try to serve the exact file first
		name := strings.TrimPrefix(r.URL.Path, "/")
		if name != "" {
			if f, err := webFS.Open(name); err == nil {
				f.Close()
				fileServer.ServeHTTP(w, r)
				return
			}
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
