// Package api serves the lucida client over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lucidaflow/pkg/config"
	"lucidaflow/pkg/logger"
	"lucidaflow/pkg/lucida"
)

const (
	// Name is reported by the root and health endpoints
	Name = "Lucida Flow API"
	// Version is reported by the root endpoint
	Version = "1.0.0"
)

// Server is the REST façade. All handlers share one client and therefore one limiter.
type Server struct {
	router *chi.Mux
	server *http.Server
	client *lucida.Client
	addr   string
	logger logger.Logger
}

// New creates a server for client listening on cfg's address
func New(client *lucida.Client, cfg config.ServerConfig, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(RequestID)
	r.Use(RequestLogger(log))
	r.Use(Recovery(log))
	r.Use(CORS)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	s := &Server{
		router: r,
		client: client,
		addr:   cfg.Addr(),
		logger: log.WithField("component", "api"),
	}
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/services", s.handleServices)
	s.router.Get("/stats", s.handleStats)
	s.router.Post("/search", s.handleSearch)
	s.router.Post("/info", s.handleInfo)
	s.router.Post("/download", s.handleDownload)
	s.router.Post("/download-file", s.handleDownloadFile)
}

// Start listens until Shutdown is called; a graceful stop returns nil
func (s *Server) Start() error {
	logger.LogComponentStart(s.logger, "api", map[string]interface{}{
		"addr":     s.addr,
		"base_url": s.client.BaseURL(),
	})

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.LogComponentStop(s.logger, "api", "shutdown requested")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.addr
}
