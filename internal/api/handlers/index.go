// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/indexsvc"
)

// IndexHandler exposes the persistent cross-tracker index: import from a
// client, aggregate stats, and clearing by site or in full.
type IndexHandler struct {
	svc    *indexsvc.Service
	stores *models.ClientStore
}

func NewIndexHandler(svc *indexsvc.Service, stores *models.ClientStore) *IndexHandler {
	return &IndexHandler{svc: svc, stores: stores}
}

func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func (h *IndexHandler) Import(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseStringParam(w, r, "client_id", "client id")
	if !ok {
		return
	}

	cfg, err := h.stores.Get(r.Context(), clientID)
	if err != nil {
		RespondStoreError(w, err)
		return
	}

	client, err := btclient.New(cfg)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats, err := h.svc.ImportFromClient(r.Context(), client, clientID)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}

func (h *IndexHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context()); err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *IndexHandler) ClearSite(w http.ResponseWriter, r *http.Request) {
	siteID, ok := ParseStringParam(w, r, "site_id", "site id")
	if !ok {
		return
	}
	if err := h.svc.ClearBySite(r.Context(), siteID); err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"cleared": true, "site_id": siteID})
}
