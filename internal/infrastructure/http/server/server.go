// Package server wires the router, templates and middleware into an HTTP server
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/nutriplan/dietplan/internal/domain/profile"
	"github.com/nutriplan/dietplan/internal/infrastructure/config"
	"github.com/nutriplan/dietplan/internal/infrastructure/http/handlers"
	"github.com/nutriplan/dietplan/internal/infrastructure/http/middleware"
	"github.com/nutriplan/dietplan/internal/infrastructure/monitoring"
	"github.com/nutriplan/dietplan/internal/ports/inbound"
	"github.com/nutriplan/dietplan/internal/ports/outbound"
	apperrors "github.com/nutriplan/dietplan/pkg/errors"
	"github.com/nutriplan/dietplan/pkg/healthcheck"
)

//go:embed templates/*.html
var templatesFS embed.FS

// compressibleTypes are the content types worth compressing. PDFs are
// already compressed.
var compressibleTypes = []string{
	"text/html",
	"text/css",
	"text/plain",
	"application/json",
}

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	router    *chi.Mux
	server    *http.Server
	templates *template.Template
	plans     inbound.PlanService
	documents outbound.DocumentStore
	health    *healthcheck.HealthCheck
	metrics   *monitoring.MetricsCollector
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	plans inbound.PlanService,
	documents outbound.DocumentStore,
	health *healthcheck.HealthCheck,
	metrics *monitoring.MetricsCollector,
) (*Server, error) {
	templates, err := ParseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		logger:    logger.Named("http"),
		templates: templates,
		plans:     plans,
		documents: documents,
		health:    health,
		metrics:   metrics,
	}

	s.router = s.setupRouter()

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           s.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
		ErrorLog:          zap.NewStdLog(logger.Named("http.server")),
	}

	return s, nil
}

// ParseTemplates parses the embedded page templates. Pages are named after
// their file without the extension, e.g. "form" and "result".
func ParseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"hasFieldError": func(errs []apperrors.ValidationError, field string) bool {
			for _, e := range errs {
				if e.Field == field {
					return true
				}
			}
			return false
		},
		"maxFoods": func() int {
			return profile.MaxCustomFoods
		},
	}

	tmpl := template.New("").Funcs(funcMap)
	err := fs.WalkDir(templatesFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".html") {
			return nil
		}

		content, err := templatesFS.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", p, err)
		}

		name := strings.TrimSuffix(path.Base(p), ".html")
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Router returns the configured handler, mostly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Security(s.config.IsProduction()))
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server, s.config.IsDevelopment()))
	}
	if s.config.Monitoring.EnableTracing {
		r.Use(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "http.server",
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return r.Method + " " + r.URL.Path
				}),
			)
		})
	}
	if s.config.Monitoring.EnableMetrics {
		r.Use(s.metrics.HTTPMiddleware())
	}
	if s.config.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	// Operational endpoints
	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.config.Monitoring.EnableMetrics {
		r.Handle("/metrics", s.metrics.Handler())
	}

	limiter := middleware.NewRateLimiter(s.config.RateLimit, s.metrics)

	// Frontend routes
	s.setupFrontendRoutes(r, limiter)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		s.setupAPIRoutes(r, limiter)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			middleware.WriteError(w, r, apperrors.NewNotFoundError("route"))
			return
		}
		http.NotFound(w, r)
	})

	return r
}

// setupFrontendRoutes configures the form pages
func (s *Server) setupFrontendRoutes(r chi.Router, limiter *middleware.RateLimiter) {
	h := handlers.NewFrontendHandlers(s.templates, s.plans, s.documents, s.logger)

	r.Get("/", h.HandleForm)
	r.With(limiter.LimitWith(h.HandleRateLimited)).Post("/plan", h.HandleGenerate)
	r.Get("/downloads/{token}", h.HandleDownload)
}

// setupAPIRoutes configures the JSON API
func (s *Server) setupAPIRoutes(r chi.Router, limiter *middleware.RateLimiter) {
	h := handlers.NewAPIHandlers(s.plans, s.documents, s.logger)

	r.Group(func(r chi.Router) {
		r.Use(limiter.Limit)
		r.Use(middleware.JSONOnly)
		r.Post("/plans", h.CreatePlan)
		r.Post("/plans/pdf", h.CreatePlanPDF)
	})
	r.With(limiter.Limit).Get("/nutrition", h.GetNutrition)
}

// newCompressor prefers brotli and falls back to chi's gzip and deflate
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5, compressibleTypes...)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.String("address", s.server.Addr),
		zap.String("environment", s.config.App.Environment),
	)

	// Enable HTTP/2
	if err := http2.ConfigureServer(s.server, nil); err != nil {
		s.logger.Error("Failed to configure HTTP/2", zap.Error(err))
	}

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Addr is the address the server listens on
func (s *Server) Addr() string {
	return s.server.Addr
}
