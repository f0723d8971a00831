package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/region23/medbook/internal/config"
	"github.com/region23/medbook/internal/middleware"
	"github.com/region23/medbook/internal/storage"
	"github.com/region23/medbook/pkg/logger"
)

// Version - версия API в ответах health check
const Version = "1.0.0"

// Server представляет HTTP сервер с middleware
type Server struct {
	httpServer     *http.Server
	config         *config.Config
	log            *logger.Logger
	service        AppointmentService
	rateLimiter    *middleware.RateLimiter
	securityLogger *SecurityLogger
	healthChecker  *HealthChecker
}

// New создает новый HTTP сервер
func New(cfg *config.Config, svc AppointmentService, backend storage.Backend, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		config:         cfg,
		log:            log,
		service:        svc,
		securityLogger: NewSecurityLogger(log),
		healthChecker:  NewHealthChecker(backend, Version),
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, log)
	}

	s.httpServer = &http.Server{
		Addr:           ":" + cfg.Server.Port,
		Handler:        s.Routes(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	return s
}

// Routes собирает маршрутизатор с middleware.
// Порядок: заголовки безопасности, request id, логирование, rate limit, метрики.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(securityHeadersMiddleware)
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	if s.rateLimiter != nil {
		r.Use(middleware.HTTPRateLimitMiddleware(s.rateLimiter))
	}
	r.Use(middleware.PrometheusMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.healthChecker.HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", s.handleRegisterPatient)
		r.Get("/", s.handleListPatients)
		r.Get("/{id}", s.handleGetPatient)
		r.Put("/{id}", s.handleUpdatePatient)
		r.Get("/{id}/history", s.handlePatientHistory)
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/", s.handleRegisterDoctor)
		r.Get("/", s.handleListDoctors)
		r.Get("/available", s.handleAvailableDoctors)
		r.Get("/specialty/{specialty}", s.handleDoctorsBySpecialty)
		r.Get("/{id}", s.handleGetDoctor)
	})

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", s.handleBookAppointment)
		r.Get("/", s.handleListAppointments)
		r.Get("/upcoming", s.handleUpcomingAppointments)
		r.Get("/doctor/{doctorId}", s.handleDoctorAgenda)
		r.Get("/{id}", s.handleGetAppointment)
		r.Put("/{id}/cancel", s.handleCancelAppointment)
	})

	r.Route("/stats", func(r chi.Router) {
		r.Get("/doctors", s.handleTopDoctor)
		r.Get("/specialties", s.handleTopSpecialty)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "route not found", Code: "ROUTE_NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	return r
}

// Start запускает сервер и блокируется до отмены контекста или ошибки
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP server", logger.String("addr", s.httpServer.Addr))
	s.securityLogger.LogSystemEvent("server_start", "info", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown корректно завершает работу сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Error during server shutdown", logger.Error(err))
		s.securityLogger.LogSystemEvent("server_shutdown_error", "error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	s.log.Info("HTTP server shut down successfully")
	s.securityLogger.LogSystemEvent("server_shutdown_complete", "info", nil)
	return nil
}
