// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: MIT

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTorrentIndexUniqueInfoHashSiteID(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "graft-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	require.NoError(t, err, "failed to initialize database")
	defer db.Close()

	_, err = db.conn.Exec(`INSERT INTO sites (id, name, base_url, template_type) VALUES ('mteam', 'M-Team', 'https://m-team.cc', 'NexusPHP')`)
	require.NoError(t, err)

	_, err = db.conn.Exec(`INSERT INTO content_fingerprints (total_size, file_count, largest_file_size) VALUES (1000, 1, 1000)`)
	require.NoError(t, err)

	var fingerprintID int64
	require.NoError(t, db.conn.QueryRow(`SELECT id FROM content_fingerprints WHERE total_size = 1000`).Scan(&fingerprintID))

	_, err = db.conn.Exec(`
		INSERT INTO torrent_index (info_hash, site_id, fingerprint_id, size)
		VALUES (?, ?, ?, ?)
	`, "aaaa", "mteam", fingerprintID, 1000)
	require.NoError(t, err, "first insert should succeed")

	_, err = db.conn.Exec(`
		INSERT INTO torrent_index (info_hash, site_id, fingerprint_id, size)
		VALUES (?, ?, ?, ?)
	`, "aaaa", "mteam", fingerprintID, 1000)
	assert.Error(t, err, "duplicate (info_hash, site_id) should violate the unique constraint")
}

func TestDatabaseIntegrity(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "graft-test-integrity-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	require.NoError(t, err, "failed to initialize database")
	defer db.Close()

	tables := []string{
		"clients", "sites", "tracker_domains",
		"content_fingerprints", "torrent_index", "reseed_history",
		"migrations",
	}

	for _, table := range tables {
		var count int
		err := db.conn.QueryRow(`
			SELECT COUNT(*) FROM sqlite_master
			WHERE type='table' AND name=?
		`, table).Scan(&count)
		require.NoError(t, err, "failed to check table existence")
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	expectedColumns := map[string]bool{
		"id": false, "info_hash": false, "site_id": false, "torrent_id": false,
		"fingerprint_id": false, "name": false, "size": false,
		"save_path": false, "source_client": false, "created_at": false,
	}

	rows, err := db.conn.Query(`SELECT name FROM pragma_table_info('torrent_index')`)
	require.NoError(t, err)
	defer rows.Close()

	for rows.Next() {
		var colName string
		require.NoError(t, rows.Scan(&colName))
		if _, exists := expectedColumns[colName]; exists {
			expectedColumns[colName] = true
		}
	}

	for col, found := range expectedColumns {
		assert.True(t, found, "column %s should exist in torrent_index table", col)
	}
}

func TestMigrationIdempotency(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "graft-test-idempotent-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "test.db")

	db1, err := New(dbPath)
	require.NoError(t, err, "failed to initialize database first time")

	var count1 int
	require.NoError(t, db1.conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count1))
	db1.Close()

	db2, err := New(dbPath)
	require.NoError(t, err, "failed to initialize database second time")
	defer db2.Close()

	var count2 int
	require.NoError(t, db2.conn.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&count2))

	assert.Equal(t, count1, count2, "migration count should be the same after re-initialization")
	assert.Equal(t, 1, count2, "should have exactly 1 migration applied")
}
