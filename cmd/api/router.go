package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/buyer-leads/internal/infra/http/handlers"
	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
)

type routes struct {
	Buyers         *handlers.BuyerHandler
	CSV            *handlers.CSVHandler
	Auth           *handlers.AuthHandler
	Health         *handlers.HealthHandler
	Session        func(http.Handler) http.Handler
	AllowedOrigins []string
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", rt.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.Session)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/demo", rt.Auth.Demo)
			r.Get("/me", rt.Auth.Me)
			r.Post("/logout", rt.Auth.Logout)
			r.Post("/magic-link", rt.Auth.MagicLink)
			r.Get("/verify", rt.Auth.Verify)
		})

		r.Route("/buyers", func(r chi.Router) {
			r.Use(middleware.RequireIdentity)

			r.Get("/", rt.Buyers.List)
			r.Post("/", rt.Buyers.Create)
			r.Get("/stats/cities", rt.Buyers.CityCounts)
			r.Get("/export", rt.CSV.Export)
			r.Post("/import", rt.CSV.Import)
			r.Get("/{id}", rt.Buyers.Get)
			r.Patch("/{id}", rt.Buyers.Update)
			r.Delete("/{id}", rt.Buyers.Delete)
		})
	})

	return r
}
