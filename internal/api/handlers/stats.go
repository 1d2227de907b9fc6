// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/indexsvc"
)

// DashboardStats aggregates the counts the admin UI's landing page
// needs into a single round trip.
type DashboardStats struct {
	Clients       int                   `json:"clients"`
	Sites         int                   `json:"sites"`
	Index         indexsvc.Stats        `json:"index"`
	RecentHistory []models.HistoryEntry `json:"recent_history"`
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	clientStore *models.ClientStore
	siteStore   *models.SiteStore
	indexSvc    *indexsvc.Service
	history     *models.HistoryStore
}

func NewStatsHandler(clientStore *models.ClientStore, siteStore *models.SiteStore, indexSvc *indexsvc.Service, history *models.HistoryStore) *StatsHandler {
	return &StatsHandler{clientStore: clientStore, siteStore: siteStore, indexSvc: indexSvc, history: history}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clientStore.List(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	sites, err := h.siteStore.List(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	indexStats, err := h.indexSvc.GetStats(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recent, err := h.history.List(r.Context(), 20)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, DashboardStats{
		Clients:       len(clients),
		Sites:         len(sites),
		Index:         indexStats,
		RecentHistory: recent,
	})
}
