// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package btclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRPC(t *testing.T, r *http.Request) rpcRequest {
	t.Helper()
	var req rpcRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return req
}

func newTransmissionTestServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var sessionIssued int32
	var calls int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if atomic.LoadInt32(&sessionIssued) == 0 {
			atomic.StoreInt32(&sessionIssued, 1)
			w.Header().Set("X-Transmission-Session-Id", "sess-1")
			w.WriteHeader(http.StatusConflict)
			return
		}
		assert.Equal(t, "sess-1", r.Header.Get("X-Transmission-Session-Id"))

		req := decodeRPC(t, r)
		switch req.Method {
		case "session-get":
			w.Write([]byte(`{"result":"success","arguments":{}}`))
		case "torrent-get":
			w.Write([]byte(`{"result":"success","arguments":{"torrents":[{"hashString":"abc","name":"t1","totalSize":100,"downloadDir":"/dl","status":6,"percentDone":1.0}]}}`))
		case "torrent-add":
			w.Write([]byte(`{"result":"success","arguments":{"torrent-added":{"hashString":"newhash"}}}`))
		case "torrent-stop", "torrent-start", "torrent-verify", "torrent-remove":
			w.Write([]byte(`{"result":"success","arguments":{}}`))
		default:
			w.Write([]byte(`{"result":"error"}`))
		}
	}))
	return srv, &calls
}

func transmissionConfigForServer(srv *httptest.Server) ClientConfig {
	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	return ClientConfig{ID: "t1", ClientType: Transmission, Host: u.Hostname(), Port: port}
}

func TestTransmissionRetriesAfter409WithSessionID(t *testing.T) {
	srv, calls := newTransmissionTestServer(t)
	defer srv.Close()

	c := newTransmissionClient(transmissionConfigForServer(srv), srv.Client())
	err := c.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), *calls)
}

func TestTransmissionGetTorrentsMapsStatus(t *testing.T) {
	srv, _ := newTransmissionTestServer(t)
	defer srv.Close()

	c := newTransmissionClient(transmissionConfigForServer(srv), srv.Client())
	torrents, err := c.GetTorrents(context.Background())
	require.NoError(t, err)
	require.Len(t, torrents, 1)
	assert.Equal(t, StateSeeding, torrents[0].State)
}

func TestTransmissionAddTorrentReturnsHash(t *testing.T) {
	srv, _ := newTransmissionTestServer(t)
	defer srv.Close()

	c := newTransmissionClient(transmissionConfigForServer(srv), srv.Client())
	hash, err := c.AddTorrent(context.Background(), []byte("d8:announce..."), AddTorrentOptions{})
	require.NoError(t, err)
	assert.Equal(t, "newhash", hash)
}

func TestTransmissionUnauthorizedMapsToAuthenticationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTransmissionClient(transmissionConfigForServer(srv), srv.Client())
	err := c.TestConnection(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthenticationFailed))
}

func TestTransmissionRecheckTorrent(t *testing.T) {
	srv, _ := newTransmissionTestServer(t)
	defer srv.Close()

	c := newTransmissionClient(transmissionConfigForServer(srv), srv.Client())
	err := c.RecheckTorrent(context.Background(), "abc")
	require.NoError(t, err)
}

func TestMapTransmissionStatus(t *testing.T) {
	assert.Equal(t, StatePaused, mapTransmissionStatus(0))
	assert.Equal(t, StateChecking, mapTransmissionStatus(1))
	assert.Equal(t, StateChecking, mapTransmissionStatus(2))
	assert.Equal(t, StateDownloading, mapTransmissionStatus(3))
	assert.Equal(t, StateDownloading, mapTransmissionStatus(4))
	assert.Equal(t, StateSeeding, mapTransmissionStatus(5))
	assert.Equal(t, StateSeeding, mapTransmissionStatus(6))
	assert.Equal(t, StateUnknown, mapTransmissionStatus(99))
}
