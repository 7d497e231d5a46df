// Package api wires the HTTP surface: route registration, JWT auth,
// CORS, and JSON error translation. Grounded on codeready-toolchain-
// tarsy's pkg/api/server.go (Server struct wrapping *echo.Echo,
// setupRoutes, Start/Shutdown/health-handler shape), adapted from Echo
// v5 to the v4 + echo-jwt/v4 stack intelligencedev-manifold already
// depends on.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"memoryd/internal/auth"
	"memoryd/internal/chat"
	"memoryd/internal/config"
	"memoryd/internal/database"
	"memoryd/internal/scheduler"
	"memoryd/internal/store"
)

// Server is the HTTP API server.
type Server struct {
	echo *echo.Echo
	http *http.Server

	cfg          *config.Config
	db           *database.Pool
	users        *auth.UserStore
	instructions *store.SystemInstructionStore
	prompts      *store.UserCustomPromptStore
	memories     *store.MemoryStore
	gc           *scheduler.GC
	orchestrator *chat.Orchestrator
	log          zerolog.Logger
}

// NewServer builds the server and registers every route.
func NewServer(
	cfg *config.Config,
	db *database.Pool,
	users *auth.UserStore,
	instructions *store.SystemInstructionStore,
	prompts *store.UserCustomPromptStore,
	memories *store.MemoryStore,
	gc *scheduler.GC,
	orchestrator *chat.Orchestrator,
	log zerolog.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo: e, cfg: cfg, db: db, users: users, instructions: instructions,
		prompts: prompts, memories: memories, gc: gc, orchestrator: orchestrator, log: log,
	}
	e.HTTPErrorHandler = httpErrorHandler
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.Use(echomw.BodyLimit("2M"))
	s.echo.Use(echomw.Recover())
	s.echo.Use(corsMiddleware(s.cfg.CORSOrigins))

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")

	v1.POST("/auth/register", s.registerHandler)
	v1.POST("/auth/login", s.loginHandler)

	authed := v1.Group("", auth.Middleware(s.cfg.Auth.JWTSecret))
	authed.GET("/auth/me", s.meHandler)

	authed.POST("/chat", s.chatHandler)

	authed.GET("/system-instructions", s.listInstructionsHandler)
	authed.POST("/system-instructions", s.createInstructionHandler)
	authed.PUT("/system-instructions/:id", s.updateInstructionHandler)
	authed.DELETE("/system-instructions/:id", s.deleteInstructionHandler)

	authed.GET("/prompts", s.listPromptsHandler)
	authed.PUT("/prompts", s.upsertPromptHandler)
	authed.DELETE("/prompts/:id", s.deletePromptHandler)

	authed.GET("/memory/list", s.listMemoryHandler)
	authed.DELETE("/memory/:id", s.deleteMemoryHandler)
	authed.POST("/memory/clear-old", s.clearOldMemoryHandler)
}

// Start runs the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.echo}
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (s *Server) healthHandler(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Database: "down"})
	}
	return c.JSON(http.StatusOK, healthResponse{Status: "healthy", Database: "up"})
}
