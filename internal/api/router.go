package api

import (
	"net/http"
	"time"

	"coding_documenty/internal/api/handler"
	"coding_documenty/internal/api/middleware"
	"coding_documenty/internal/api/view"
	"coding_documenty/internal/app/service"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	QuestionService *service.QuestionService
	AuthService     *service.AuthService
	Sessions        *middleware.SessionManager
	Views           *view.Renderer
	HealthChecks    map[string]handler.HealthCheck
	BaseURL         string
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.SetHeader("X-Content-Type-Options", "nosniff"))
	r.Use(chiMiddleware.SetHeader("X-Frame-Options", "DENY"))
	r.Use(chiMiddleware.SetHeader("Referrer-Policy", "same-origin"))
	r.Use(middleware.MethodOverride)
	r.Use(middleware.Instrument)

	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(deps.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	sm := deps.Sessions
	publicHandler := handler.NewPublicHandler(deps.QuestionService, deps.Views, sm)
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Views, sm, deps.BaseURL)
	adminHandler := handler.NewAdminHandler(deps.QuestionService, deps.AuthService, deps.Views, sm)

	r.Group(func(site chi.Router) {
		site.Use(sm.Verifier())
		site.Use(sm.Load)
		site.Use(middleware.Sidebar(deps.QuestionService))

		publicHandler.RegisterRoutes(site)

		site.Route("/admin", func(admin chi.Router) {
			authHandler.RegisterRoutes(admin)

			admin.Group(func(protected chi.Router) {
				protected.Use(sm.AdminOnly)
				adminHandler.RegisterRoutes(protected)
			})
		})
	})

	return r
}
