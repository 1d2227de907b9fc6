// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/domain"
	"github.com/ptgraft/graft/internal/models"
)

// redactClient returns a copy of cfg with its password masked for API
// responses; callers must not persist the result.
func redactClient(cfg btclient.ClientConfig) btclient.ClientConfig {
	cfg.Password = domain.RedactString(cfg.Password)
	return cfg
}

func redactClients(list []btclient.ClientConfig) []btclient.ClientConfig {
	redacted := make([]btclient.ClientConfig, len(list))
	for i, cfg := range list {
		redacted[i] = redactClient(cfg)
	}
	return redacted
}

// ClientsHandler exposes CRUD and connectivity checks for configured
// BitTorrent clients.
type ClientsHandler struct {
	store *models.ClientStore
}

func NewClientsHandler(store *models.ClientStore) *ClientsHandler {
	return &ClientsHandler{store: store}
}

func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.store.List(r.Context())
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactClients(clients))
}

// ClientCreate is the request body for POST/PUT /api/clients.
type ClientCreate struct {
	Name       string             `json:"name"`
	ClientType btclient.ClientType `json:"client_type"`
	Host       string             `json:"host"`
	Port       int                `json:"port"`
	Username   string             `json:"username"`
	Password   string             `json:"password"`
	UseHTTPS   bool               `json:"use_https"`
}

func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body ClientCreate
	if !DecodeJSON(w, r, &body) {
		return
	}

	cfg := btclient.ClientConfig{
		ID:         uuid.NewString(),
		Name:       body.Name,
		ClientType: body.ClientType,
		Host:       body.Host,
		Port:       body.Port,
		Username:   body.Username,
		Password:   body.Password,
		UseHTTPS:   body.UseHTTPS,
	}

	created, err := h.store.Create(r.Context(), cfg)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, redactClient(created))
}

func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "client id")
	if !ok {
		return
	}
	cfg, err := h.store.Get(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactClient(cfg))
}

func (h *ClientsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "client id")
	if !ok {
		return
	}
	var body ClientCreate
	if !DecodeJSON(w, r, &body) {
		return
	}

	// A client echoing back a redacted password from a prior GET/List
	// must not overwrite the stored credential with the placeholder.
	if domain.IsRedactedString(body.Password) {
		existing, err := h.store.Get(r.Context(), id)
		if err != nil {
			RespondStoreError(w, err)
			return
		}
		body.Password = existing.Password
	}

	cfg := btclient.ClientConfig{
		ID:         id,
		Name:       body.Name,
		ClientType: body.ClientType,
		Host:       body.Host,
		Port:       body.Port,
		Username:   body.Username,
		Password:   body.Password,
		UseHTTPS:   body.UseHTTPS,
	}
	if err := h.store.Update(r.Context(), cfg); err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, redactClient(cfg))
}

func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "client id")
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		RespondStoreError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// TestConnectionResponse is the body of POST /api/clients/{id}/test.
type TestConnectionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *ClientsHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "client id")
	if !ok {
		return
	}
	cfg, err := h.store.Get(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err)
		return
	}

	client, err := btclient.New(cfg)
	if err != nil {
		RespondJSON(w, http.StatusOK, TestConnectionResponse{Success: false, Message: err.Error()})
		return
	}

	if err := client.TestConnection(r.Context()); err != nil {
		RespondJSON(w, http.StatusOK, TestConnectionResponse{Success: false, Message: err.Error()})
		return
	}
	RespondJSON(w, http.StatusOK, TestConnectionResponse{Success: true, Message: "connected"})
}

func (h *ClientsHandler) ListTorrents(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseStringParam(w, r, "id", "client id")
	if !ok {
		return
	}
	cfg, err := h.store.Get(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err)
		return
	}

	client, err := btclient.New(cfg)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	torrents, err := client.GetTorrents(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, torrents)
}
