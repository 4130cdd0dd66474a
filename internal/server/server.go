// Package server exposes the registration API, admin review endpoints and
// signed export downloads over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"festreg/internal/admission"
	"festreg/internal/export"
	"festreg/internal/models"
)

type Registrations interface {
	Register(ctx context.Context, req admission.Request) admission.Outcome
	ListUserRegistrations(ctx context.Context, userID string) ([]models.Registration, error)
	ListByDay(ctx context.Context, day models.GameDay) ([]models.Registration, error)
	SetApprovalStatus(ctx context.Context, id string, status models.ApprovalStatus) error
	SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
}

type Admission interface {
	ValidateDayRegistration(ctx context.Context, userID string, day int) admission.DayDecision
	GetUserRegistrationSummary(ctx context.Context, userID string) (admission.Summary, error)
	CheckRegistrationLimit(ctx context.Context, userID string) (admission.LimitStatus, error)
	GetDayWiseStatistics(ctx context.Context) (admission.Statistics, error)
}

type Catalog interface {
	export.GameLookup
	List() []models.Game
}

type Config struct {
	Addr         string
	ExportSecret string
	AdminToken   string
	// RegisterRate and RegisterBurst bound POST /api/registrations per client IP.
	RegisterRate  rate.Limit
	RegisterBurst int
}

type Server struct {
	cfg       Config
	regs      Registrations
	admission Admission
	games     Catalog
	metrics   http.Handler
	logger    *slog.Logger
}

func New(cfg Config, regs Registrations, adm Admission, games Catalog, metrics http.Handler, logger *slog.Logger) *Server {
	if cfg.RegisterRate == 0 {
		cfg.RegisterRate = 1
	}
	if cfg.RegisterBurst == 0 {
		cfg.RegisterBurst = 5
	}
	return &Server{
		cfg:       cfg,
		regs:      regs,
		admission: adm,
		games:     games,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	limiter := NewIPRateLimiter(s.cfg.RegisterRate, s.cfg.RegisterBurst)
	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.With(RateLimitMiddleware(limiter)).Post("/registrations", s.handleRegister)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/registrations", s.handleUserRegistrations)
			r.Get("/summary", s.handleUserSummary)
			r.Get("/limit", s.handleUserLimit)
			r.Get("/days/{day}/check", s.handleDayCheck)
		})

		r.Get("/stats/days", s.handleDayStats)

		r.Route("/admin", func(r chi.Router) {
			r.Use(AdminTokenMiddleware(s.cfg.AdminToken))
			r.Post("/registrations/{id}/approval", s.handleSetApproval)
			r.Post("/registrations/{id}/payment", s.handleSetPayment)
		})
	})

	r.Get("/export/registrations.csv", s.handleExport(exportCSV))
	r.Get("/export/registrations.xlsx", s.handleExport(exportXLSX))

	return r
}
