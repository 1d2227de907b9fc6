// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package btclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQBitTestServer(t *testing.T, loginFails bool) (*httptest.Server, *int) {
	t.Helper()
	forbiddenOnce := 0
	calls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if loginFails {
			w.Write([]byte("Fails."))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc123"})
		w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if forbiddenOnce == 0 {
			forbiddenOnce++
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("v4.6.0"))
	})
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"hash":"abc","name":"t1","size":100,"save_path":"/dl","state":"uploading","progress":1.0}]`))
	})
	mux.HandleFunc("/api/v2/torrents/files", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"f1.mkv","size":100}]`))
	})
	mux.HandleFunc("/api/v2/torrents/trackers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"url":"** [DHT] **"},{"url":"https://tracker.example/announce"}]`))
	})
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))
		assert.Equal(t, "/save", r.FormValue("savepath"))
		w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/torrents/pause", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	return srv, &calls
}

func testClientConfigForServer(srv *httptest.Server) ClientConfig {
	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	return ClientConfig{ID: "c1", ClientType: QBittorrent, Host: u.Hostname(), Port: port, Username: "admin", Password: "pw"}
}

func TestQBittorrentLoginFailureMapsToAuthenticationFailed(t *testing.T) {
	srv, _ := newQBitTestServer(t, true)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestQBittorrentRetriesOnceAfter403(t *testing.T) {
	srv, calls := newQBitTestServer(t, false)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, *calls)
}

func TestQBittorrentGetTorrentsMapsState(t *testing.T) {
	srv, _ := newQBitTestServer(t, false)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	torrents, err := c.GetTorrents(context.Background())
	require.NoError(t, err)
	require.Len(t, torrents, 1)
	assert.Equal(t, StateSeeding, torrents[0].State)
}

func TestQBittorrentGetTorrentTrackersFiltersPseudoTrackers(t *testing.T) {
	srv, _ := newQBitTestServer(t, false)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	trackers, err := c.GetTorrentTrackers(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, trackers, 1)
	assert.Equal(t, "https://tracker.example/announce", trackers[0])
}

func TestQBittorrentAddTorrentReturnsEmptyHash(t *testing.T) {
	srv, _ := newQBitTestServer(t, false)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	hash, err := c.AddTorrent(context.Background(), []byte("d8:announce..."), AddTorrentOptions{SavePath: "/save"})
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestQBittorrentPauseTorrent(t *testing.T) {
	srv, _ := newQBitTestServer(t, false)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	err := c.PauseTorrent(context.Background(), "abc")
	require.NoError(t, err)
}

func TestQBittorrentGetTorrentNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc123"})
		w.Write([]byte("Ok."))
	})
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newQBittorrentClient(testClientConfigForServer(srv), srv.Client())
	_, err := c.GetTorrent(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTorrentNotFound))
}

func TestClientConfigBaseURL(t *testing.T) {
	cfg := ClientConfig{Host: "localhost", Port: 8080, UseHTTPS: false}
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL())
	cfg.UseHTTPS = true
	assert.Equal(t, "https://localhost:8080", cfg.BaseURL())
}

func TestNewDispatchesByClientType(t *testing.T) {
	qc, err := New(ClientConfig{ClientType: QBittorrent, Host: "h", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, QBittorrent, qc.ClientType())

	tc, err := New(ClientConfig{ClientType: Transmission, Host: "h", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, Transmission, tc.ClientType())

	_, err = New(ClientConfig{ClientType: "bogus"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unsupported"))
}
