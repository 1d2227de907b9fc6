// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/reseed"
	"github.com/ptgraft/graft/internal/sites"
)

// ReseedHandler drives preview/execute over the configured clients and
// sites, and exposes the resulting history.
type ReseedHandler struct {
	svc         *reseed.Service
	clientStore *models.ClientStore
	siteStore   *models.SiteStore
	history     *models.HistoryStore
}

func NewReseedHandler(svc *reseed.Service, clientStore *models.ClientStore, siteStore *models.SiteStore, history *models.HistoryStore) *ReseedHandler {
	return &ReseedHandler{svc: svc, clientStore: clientStore, siteStore: siteStore, history: history}
}

// PreviewRequest is the body of POST /api/reseed/preview.
type PreviewRequest struct {
	SourceClientID string   `json:"source_client_id"`
	TargetSiteIDs  []string `json:"target_site_ids"`
}

func (h *ReseedHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var body PreviewRequest
	if !DecodeJSON(w, r, &body) {
		return
	}

	sourceCfg, err := h.clientStore.Get(r.Context(), body.SourceClientID)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	sourceClient, err := btclient.New(sourceCfg)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats, err := h.svc.Preview(r.Context(), sourceClient, body.TargetSiteIDs)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

// ExecuteRequestBody is the body of POST /api/reseed/execute.
type ExecuteRequestBody struct {
	SourceClientID string   `json:"source_client_id"`
	TargetClientID string   `json:"target_client_id"`
	TargetSiteIDs  []string `json:"target_site_ids"`
	AddPaused      bool     `json:"add_paused"`
	SkipChecking   bool     `json:"skip_checking"`
}

func (h *ReseedHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequestBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	sourceCfg, err := h.clientStore.Get(r.Context(), body.SourceClientID)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	targetCfg, err := h.clientStore.Get(r.Context(), body.TargetClientID)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	sourceClient, err := btclient.New(sourceCfg)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	targetClient, err := btclient.New(targetCfg)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	allSites, err := h.siteStore.List(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	siteConfigs := make(map[string]sites.SiteConfig, len(allSites))
	for _, s := range allSites {
		siteConfigs[s.ID] = s
	}

	stats, err := h.svc.Execute(r.Context(), reseed.ExecuteRequest{
		SourceClientID: body.SourceClientID,
		TargetClientID: body.TargetClientID,
		TargetSiteIDs:  body.TargetSiteIDs,
		AddPaused:      body.AddPaused,
		SkipChecking:   body.SkipChecking,
	}, sourceClient, targetClient, siteConfigs)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func (h *ReseedHandler) History(w http.ResponseWriter, r *http.Request) {
	page := ParsePagination(r, 50, 500)

	var status *models.ReseedStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.ReseedStatus(v)
		status = &s
	}

	entries, err := h.history.ListFiltered(r.Context(), page.Limit, page.Offset, status)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, entries)
}
