// Package server exposes networks, layouts, renders and live interactive
// sessions over HTTP.
//
// Static routes run the pipeline once per request (with caching). Sessions
// keep an engine running server-side: clients post pointer events in screen
// coordinates and follow the resulting frames over server-sent events.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/creatornet/pkg/pipeline"
	"github.com/matzehuels/creatornet/pkg/scene"
	"github.com/matzehuels/creatornet/pkg/session"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = "localhost:8080"
	// ShutdownTimeout bounds how long in-flight requests get after the
	// context is cancelled.
	ShutdownTimeout = 10 * time.Second
	// KeepAliveInterval is how often idle event streams receive a comment.
	KeepAliveInterval = 30 * time.Second

	maxBodyBytes = 1 << 20
)

// Config wires a Server to its dependencies.
type Config struct {
	Addr     string
	Runner   *pipeline.Runner
	Sessions session.Store
	// Defaults fills request fields the client leaves out (platform,
	// metric, canvas, seed, style).
	Defaults pipeline.Options
	// Session configures engines created by POST /api/sessions. Its
	// Layout canvas and seed are overridden per request.
	Session session.Options
	Logger  *log.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	router chi.Router
	logger *log.Logger
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore(cfg.Logger)
	}
	if cfg.Defaults.Style == (scene.Style{}) {
		cfg.Defaults.Style = scene.DefaultStyle()
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/network", s.handleNetwork)
		r.Post("/layout", s.handleLayout)
		r.Get("/render", s.handleRender)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Get("/events", s.handleEvents)
				r.Post("/pointer", s.handlePointer)
				r.Put("/selection", s.handleSelection)
			})
		})
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request on the charm logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}
