// Package server provides the HTTP server and routing for the ledger.
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

	"github.com/aristath/dealerledger/internal/di"
	amortizationhandlers "github.com/aristath/dealerledger/internal/modules/amortization/handlers"
	invoicehandlers "github.com/aristath/dealerledger/internal/modules/invoices/handlers"
	ledgerhandlers "github.com/aristath/dealerledger/internal/modules/ledger/handlers"
	settingshandlers "github.com/aristath/dealerledger/internal/modules/settings/handlers"
	"github.com/aristath/dealerledger/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container // DI container with all services
	Jobs      *di.JobInstances
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		container: cfg.Container,
	}
	s.systemHandlers = NewSystemHandlers(cfg.Log, cfg.Container, jobsByName(cfg.Jobs))

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
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

	c := s.container

	amortizationHandler := amortizationhandlers.NewHandler(c.Calculator, s.log)
	ledgerHandler := ledgerhandlers.NewHandler(c.Reconciler, s.log)
	invoiceHandler := invoicehandlers.NewHandler(c.InvoiceService, c.Reconciler, s.log)
	settingsHandler := settingshandlers.NewHandler(c.SettingsService, c.EventManager, s.log)

	s.router.Route("/api", func(r chi.Router) {
		amortizationHandler.RegisterRoutes(r)

		// Invoice lifecycle and its payments share one subrouter
		r.Route("/invoices", func(r chi.Router) {
			invoiceHandler.RegisterRoutes(r)
			ledgerHandler.RegisterInvoiceRoutes(r)
		})
		ledgerHandler.RegisterRoutes(r)

		settingsHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleListJobs)
			r.Post("/jobs/{name}", s.systemHandlers.HandleTriggerJob)
		})
		r.Get("/events/recent", s.systemHandlers.HandleRecentEvents)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
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

		event := s.log.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.log.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

func jobsByName(jobs *di.JobInstances) map[string]scheduler.Job {
	out := make(map[string]scheduler.Job)
	if jobs == nil {
		return out
	}
	for _, job := range []scheduler.Job{jobs.OverdueSweep, jobs.ExportArchive, jobs.WALCheckpoint} {
		if job != nil {
			out[job.Name()] = job
		}
	}
	return out
}
