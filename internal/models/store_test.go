// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ptgraft/graft/internal/crypto"
	"github.com/ptgraft/graft/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestSecretBox(t *testing.T) *crypto.SecretBox {
	t.Helper()
	secret, err := crypto.NewSecretBox("test-session-secret")
	require.NoError(t, err)
	return secret
}
