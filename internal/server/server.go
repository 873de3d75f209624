package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hongminglow/health-risk-be/internal/config"
	"github.com/hongminglow/health-risk-be/internal/http/handlers"
	"github.com/hongminglow/health-risk-be/internal/middleware"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Identity      handlers.IdentityService
	Authenticator middleware.Authenticator
	Records       handlers.RecordService
	Models        []string
	Logger        *slog.Logger
	StartedAt     time.Time
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg.CORSOrigins, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// NewHandler builds the routed handler.
func NewHandler(corsOrigins []string, deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	startedAt := deps.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(corsOrigins))
	r.Use(func(next http.Handler) http.Handler { return middleware.Logging(logger, next) })
	r.Use(chimw.StripSlashes)

	authed := middleware.Bearer(deps.Authenticator)
	handlers.NewHealthHandler(startedAt, deps.Models).Routes(r)
	handlers.NewAuthHandler(deps.Identity).Routes(r, authed)
	handlers.NewRecordHandler(deps.Records).Routes(r, authed)

	return r
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
