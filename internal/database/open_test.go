// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenRequiresSQLitePath(t *testing.T) {
	t.Parallel()

	_, err := Open(OpenOptions{})
	require.Error(t, err)
}

func TestOpenCreatesDatabaseFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "graft.db")

	db, err := Open(OpenOptions{SQLitePath: path})
	require.NoError(t, err)
	defer db.Close()

	require.FileExists(t, path)
}
