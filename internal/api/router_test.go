// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ptgraft/graft/internal/crypto"
	"github.com/ptgraft/graft/internal/database"
	"github.com/ptgraft/graft/internal/domain"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/services/indexsvc"
	"github.com/ptgraft/graft/internal/services/reseed"
	"github.com/ptgraft/graft/internal/tracker"
)

func newTestDependencies(t *testing.T) *Dependencies {
	t.Helper()

	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	secret, err := crypto.NewSecretBox("test-session-secret")
	require.NoError(t, err)

	clientStore := models.NewClientStore(db, secret)
	siteStore := models.NewSiteStore(db, secret)
	historyStore := models.NewHistoryStore(db)
	indexStore := models.NewTorrentIndexStore(db)
	fpStore := models.NewFingerprintStore(db)

	indexSvc := indexsvc.New(indexStore, fpStore, tracker.New())
	reseedSvc := reseed.New(indexSvc, tracker.New(), historyStore, 0)

	return &Dependencies{
		Config:        domain.Defaults(),
		ClientStore:   clientStore,
		SiteStore:     siteStore,
		HistoryStore:  historyStore,
		IndexService:  indexSvc,
		ReseedService: reseedSvc,
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(newTestDependencies(t))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestCORSPreflightIsHandled(t *testing.T) {
	router := NewRouter(newTestDependencies(t))

	req := httptest.NewRequest(http.MethodOptions, "/api/clients", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestClientsRouteRoundTrip(t *testing.T) {
	router := NewRouter(newTestDependencies(t))

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}
