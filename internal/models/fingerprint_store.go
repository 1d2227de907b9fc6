// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ptgraft/graft/internal/dbinterface"
	"github.com/ptgraft/graft/internal/fingerprint"
)

// FingerprintStore deduplicates fingerprint.ContentFingerprint values
// behind a surrogate id, so many torrent_index rows across sites can
// share one fingerprint row.
type FingerprintStore struct {
	db dbinterface.Querier
}

func NewFingerprintStore(db dbinterface.Querier) *FingerprintStore {
	return &FingerprintStore{db: db}
}

// GetOrCreate returns the surrogate id for fp, inserting a new row only
// if an identical (total_size, file_count, largest_file_size) triple
// doesn't already exist. files_hash is stored alongside the triple but
// is not part of the dedup key: two torrents with the same size shape
// dedup to the same fingerprint row regardless of files_hash, and the
// first-seen files_hash is filled in if the existing row has none.
func (s *FingerprintStore) GetOrCreate(ctx context.Context, fp fingerprint.ContentFingerprint) (int64, error) {
	id, err := s.find(ctx, fp)
	if err == nil {
		if fp.FilesHash != "" {
			if _, execErr := s.db.ExecContext(ctx, `
				UPDATE content_fingerprints SET files_hash = ? WHERE id = ? AND files_hash IS NULL
			`, fp.FilesHash, id); execErr != nil {
				return 0, execErr
			}
		}
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO content_fingerprints (total_size, file_count, largest_file_size, files_hash)
		VALUES (?, ?, ?, ?)
	`, fp.TotalSize, fp.FileCount, fp.LargestFileSize, nullIfEmpty(fp.FilesHash))
	if err != nil {
		if isUniqueConstraintError(err) {
			// Lost a race with a concurrent insert of the same fingerprint.
			return s.find(ctx, fp)
		}
		return 0, err
	}

	return result.LastInsertId()
}

func (s *FingerprintStore) find(ctx context.Context, fp fingerprint.ContentFingerprint) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM content_fingerprints
		WHERE total_size = ? AND file_count = ? AND largest_file_size = ?
	`, fp.TotalSize, fp.FileCount, fp.LargestFileSize).Scan(&id)
	return id, err
}

func (s *FingerprintStore) Get(ctx context.Context, id int64) (fingerprint.ContentFingerprint, error) {
	var fp fingerprint.ContentFingerprint
	var filesHash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT total_size, file_count, largest_file_size, files_hash
		FROM content_fingerprints WHERE id = ?
	`, id).Scan(&fp.TotalSize, &fp.FileCount, &fp.LargestFileSize, &filesHash)
	if err != nil {
		return fingerprint.ContentFingerprint{}, err
	}
	fp.FilesHash = filesHash.String
	return fp, nil
}

// ByTotalSize loads every fingerprint sharing a total size, the primary
// bucket key an in-memory fingerprint.Matcher is built from.
func (s *FingerprintStore) ByTotalSize(ctx context.Context, totalSize uint64) (map[int64]fingerprint.ContentFingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, total_size, file_count, largest_file_size, files_hash
		FROM content_fingerprints WHERE total_size = ?
	`, totalSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]fingerprint.ContentFingerprint)
	for rows.Next() {
		var id int64
		var fp fingerprint.ContentFingerprint
		var filesHash sql.NullString
		if err := rows.Scan(&id, &fp.TotalSize, &fp.FileCount, &fp.LargestFileSize, &filesHash); err != nil {
			return nil, err
		}
		fp.FilesHash = filesHash.String
		out[id] = fp
	}
	return out, rows.Err()
}
