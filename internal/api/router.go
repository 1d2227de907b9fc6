// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api wires the admin HTTP surface: the chi router, its
// middleware chain, and the route tree over internal/api/handlers.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/ptgraft/graft/internal/api/handlers"
	apimiddleware "github.com/ptgraft/graft/internal/api/middleware"
	"github.com/ptgraft/graft/internal/domain"
	"github.com/ptgraft/graft/internal/metrics"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/indexsvc"
	"github.com/ptgraft/graft/internal/services/reseed"
)

// Dependencies holds everything NewRouter needs to build handlers. All
// fields are required except MetricsManager, which is nil when metrics
// are disabled.
type Dependencies struct {
	Config         *domain.Config
	ClientStore    *models.ClientStore
	SiteStore      *models.SiteStore
	HistoryStore   *models.HistoryStore
	IndexService   *indexsvc.Service
	ReseedService  *reseed.Service
	MetricsManager *metrics.Manager
}

// NewRouter builds the admin API's chi.Mux: request id and structured
// logging first, then panic recovery, real-IP resolution and response
// compression, then CORS, then the /api route tree.
func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID) // must precede HTTPLogger to capture the id
	r.Use(apimiddleware.HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(apimiddleware.SelectiveCompress(1024, 5, true, true))

	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if deps.Config != nil && deps.Config.BaseURL != "" {
		allowedOrigins = append(allowedOrigins, deps.Config.BaseURL)
	}
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	clientsHandler := handlers.NewClientsHandler(deps.ClientStore)
	sitesHandler := handlers.NewSitesHandler(deps.SiteStore)
	indexHandler := handlers.NewIndexHandler(deps.IndexService, deps.ClientStore)
	reseedHandler := handlers.NewReseedHandler(deps.ReseedService, deps.ClientStore, deps.SiteStore, deps.HistoryStore)
	statsHandler := handlers.NewStatsHandler(deps.ClientStore, deps.SiteStore, deps.IndexService, deps.HistoryStore)

	r.Get("/api/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", clientsHandler.List)
			r.Post("/", clientsHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", clientsHandler.Get)
				r.Put("/", clientsHandler.Update)
				r.Delete("/", clientsHandler.Delete)
				r.Post("/test", clientsHandler.TestConnection)
				r.Get("/torrents", clientsHandler.ListTorrents)
			})
		})

		r.Route("/sites", func(r chi.Router) {
			r.Get("/", sitesHandler.List)
			r.Post("/", sitesHandler.Create)
			r.Get("/available", sitesHandler.Available)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sitesHandler.Get)
				r.Put("/", sitesHandler.Update)
				r.Delete("/", sitesHandler.Delete)
			})
		})

		r.Route("/index", func(r chi.Router) {
			r.Get("/stats", indexHandler.Stats)
			r.Post("/import/{client_id}", indexHandler.Import)
			r.Delete("/", indexHandler.Clear)
			r.Delete("/{site_id}", indexHandler.ClearSite)
		})

		r.Route("/reseed", func(r chi.Router) {
			r.Post("/preview", reseedHandler.Preview)
			r.Post("/execute", reseedHandler.Execute)
			r.Get("/history", reseedHandler.History)
		})

		r.Get("/stats", statsHandler.Get)
	})

	return r
}
