// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/ptgraft/graft/internal/domain"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/sites"
)

// redactSite returns a copy of cfg with its passkey/authkey/cookie
// masked for API responses; callers must not persist the result.
func redactSite(cfg sites.SiteConfig) sites.SiteConfig {
	cfg.Passkey = domain.RedactString(cfg.Passkey)
	cfg.Authkey = domain.RedactString(cfg.Authkey)
	cfg.Cookie = domain.RedactString(cfg.Cookie)
	return cfg
}

func redactSites(list []sites.SiteConfig) []sites.SiteConfig {
	redacted := make([]sites.SiteConfig, len(list))
	for i, cfg := range list {
		redacted[i] = redactSite(cfg)
	}
	return redacted
}

// SitesHandler exposes CRUD for tracker site configurations plus the
// read-only built-in site catalog.
type SitesHandler struct {
	store *models.SiteStore
}

func NewSitesHandler(store *models.SiteStore) *SitesHandler {
	return &SitesHandler{store: store}
}

func (h *SitesHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactSites(list))
}

// Available returns the built-in tracker catalog this project ships
// templates for. These are not persisted configs, just the framework
// and rate-limit defaults a new site can be seeded from.
func (h *SitesHandler) Available(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, sites.BuiltinSites())
}

// SiteCreate is the request body for POST/PUT /api/sites.
type SiteCreate struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	BaseURL         string             `json:"base_url"`
	TemplateType    sites.TemplateType `json:"template_type"`
	TrackerDomains  []string           `json:"tracker_domains"`
	DownloadPattern string             `json:"download_pattern"`
	Passkey         string             `json:"passkey"`
	Authkey         string             `json:"authkey"`
	Cookie          string             `json:"cookie"`
	Enabled         bool               `json:"enabled"`
	RateLimitRPM    *int               `json:"rate_limit_rpm"`
}

func (h *SitesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body SiteCreate
	if !DecodeJSON(w, r, &body) {
		return
	}

	cfg := sites.SiteConfig{
		ID:              body.ID,
		Name:            body.Name,
		BaseURL:         body.BaseURL,
		TemplateType:    body.TemplateType,
		TrackerDomains:  body.TrackerDomains,
		DownloadPattern: body.DownloadPattern,
		Passkey:         body.Passkey,
		Authkey:         body.Authkey,
		Cookie:          body.Cookie,
		Enabled:         body.Enabled,
		RateLimitRPM:    body.RateLimitRPM,
	}

	created, err := h.store.Create(r.Context(), cfg)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, redactSite(created))
}

func (h *SitesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "site id")
	if !ok {
		return
	}
	cfg, err := h.store.Get(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactSite(cfg))
}

func (h *SitesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "site id")
	if !ok {
		return
	}
	var body SiteCreate
	if !DecodeJSON(w, r, &body) {
		return
	}

	// A client echoing back redacted secrets from a prior GET/List must
	// not overwrite the stored values with the placeholder.
	if domain.IsRedactedString(body.Passkey) || domain.IsRedactedString(body.Authkey) || domain.IsRedactedString(body.Cookie) {
		existing, err := h.store.Get(r.Context(), id)
		if err != nil {
			RespondStoreError(w, err)
			return
		}
		if domain.IsRedactedString(body.Passkey) {
			body.Passkey = existing.Passkey
		}
		if domain.IsRedactedString(body.Authkey) {
			body.Authkey = existing.Authkey
		}
		if domain.IsRedactedString(body.Cookie) {
			body.Cookie = existing.Cookie
		}
	}

	cfg := sites.SiteConfig{
		ID:              id,
		Name:            body.Name,
		BaseURL:         body.BaseURL,
		TemplateType:    body.TemplateType,
		TrackerDomains:  body.TrackerDomains,
		DownloadPattern: body.DownloadPattern,
		Passkey:         body.Passkey,
		Authkey:         body.Authkey,
		Cookie:          body.Cookie,
		Enabled:         body.Enabled,
		RateLimitRPM:    body.RateLimitRPM,
	}
	if err := h.store.Update(r.Context(), cfg); err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactSite(cfg))
}

func (h *SitesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "site id")
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
