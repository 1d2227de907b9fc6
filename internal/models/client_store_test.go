// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgraft/graft/internal/btclient"
)

func TestClientStoreCreateGetRoundTripsPassword(t *testing.T) {
	db := newTestDB(t)
	secret := newTestSecretBox(t)
	store := NewClientStore(db, secret)

	cfg := btclient.ClientConfig{
		ID: "qbit1", Name: "qBittorrent", ClientType: btclient.QBittorrent,
		Host: "localhost", Port: 8080, Username: "admin", Password: "hunter2", UseHTTPS: false,
	}

	_, err := store.Create(context.Background(), cfg)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), "qbit1")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Password)
	assert.Equal(t, btclient.QBittorrent, got.ClientType)
}

func TestClientStoreDuplicateIDRejected(t *testing.T) {
	db := newTestDB(t)
	store := NewClientStore(db, newTestSecretBox(t))

	cfg := btclient.ClientConfig{ID: "c1", Name: "c", ClientType: btclient.Transmission, Host: "h", Port: 1}
	_, err := store.Create(context.Background(), cfg)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), cfg)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestClientStoreGetMissingReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewClientStore(db, newTestSecretBox(t))

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientStoreUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	store := NewClientStore(db, newTestSecretBox(t))

	cfg := btclient.ClientConfig{ID: "c1", Name: "c", ClientType: btclient.Transmission, Host: "h", Port: 1}
	_, err := store.Create(context.Background(), cfg)
	require.NoError(t, err)

	cfg.Name = "renamed"
	require.NoError(t, store.Update(context.Background(), cfg))

	got, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)

	require.NoError(t, store.Delete(context.Background(), "c1"))
	_, err = store.Get(context.Background(), "c1")
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientStoreList(t *testing.T) {
	db := newTestDB(t)
	store := NewClientStore(db, newTestSecretBox(t))

	_, err := store.Create(context.Background(), btclient.ClientConfig{ID: "b", Name: "b", ClientType: btclient.QBittorrent, Host: "h", Port: 1})
	require.NoError(t, err)
	_, err = store.Create(context.Background(), btclient.ClientConfig{ID: "a", Name: "a", ClientType: btclient.QBittorrent, Host: "h", Port: 1})
	require.NoError(t, err)

	all, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
}
