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

// IndexEntry is the persisted row backing fingerprint.Entry: one torrent
// as seen on one site, pointing at a deduplicated fingerprint id.
type IndexEntry struct {
	ID            int64
	InfoHash      string
	SiteID        string
	TorrentID     string
	FingerprintID int64
	Name          string
	Size          uint64
	SavePath      string
	SourceClient  string
}

type TorrentIndexStore struct {
	db dbinterface.Querier
}

func NewTorrentIndexStore(db dbinterface.Querier) *TorrentIndexStore {
	return &TorrentIndexStore{db: db}
}

// Upsert records or refreshes one (info_hash, site_id) entry. On a
// conflict, torrent_id, fingerprint_id, name, size, save_path and
// source_client of the existing row are overwritten with e's values.
func (s *TorrentIndexStore) Upsert(ctx context.Context, e IndexEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO torrent_index (info_hash, site_id, torrent_id, fingerprint_id, name, size, save_path, source_client)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (info_hash, site_id) DO UPDATE SET
			torrent_id = excluded.torrent_id,
			fingerprint_id = excluded.fingerprint_id,
			name = excluded.name,
			size = excluded.size,
			save_path = excluded.save_path,
			source_client = excluded.source_client
	`, e.InfoHash, e.SiteID, nullIfEmpty(e.TorrentID), e.FingerprintID, nullIfEmpty(e.Name), e.Size,
		nullIfEmpty(e.SavePath), nullIfEmpty(e.SourceClient))
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return ErrSiteNotFound
		}
		return err
	}
	return nil
}

func scanIndexEntry(row interface{ Scan(dest ...any) error }) (IndexEntry, error) {
	var e IndexEntry
	var torrentID, name, savePath, sourceClient sql.NullString
	err := row.Scan(&e.ID, &e.InfoHash, &e.SiteID, &torrentID, &e.FingerprintID, &name, &e.Size, &savePath, &sourceClient)
	if err != nil {
		return IndexEntry{}, err
	}
	e.TorrentID = torrentID.String
	e.Name = name.String
	e.SavePath = savePath.String
	e.SourceClient = sourceClient.String
	return e, nil
}

const indexEntryColumns = `id, info_hash, site_id, torrent_id, fingerprint_id, name, size, save_path, source_client`

func (s *TorrentIndexStore) Get(ctx context.Context, infoHash, siteID string) (IndexEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+indexEntryColumns+` FROM torrent_index WHERE info_hash = ? AND site_id = ?`, infoHash, siteID)
	e, err := scanIndexEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return IndexEntry{}, nil
		}
		return IndexEntry{}, err
	}
	return e, nil
}

// ByFingerprint returns every index entry sharing fingerprintID, the
// join fingerprint.Matcher's buckets are rebuilt from.
func (s *TorrentIndexStore) ByFingerprint(ctx context.Context, fingerprintID int64) ([]IndexEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+indexEntryColumns+` FROM torrent_index WHERE fingerprint_id = ?`, fingerprintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IndexEntry
	for rows.Next() {
		e, err := scanIndexEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// All iterates every index entry joined with its fingerprint, the shape
// needed to rebuild an in-memory fingerprint.Matcher from scratch.
func (s *TorrentIndexStore) All(ctx context.Context) ([]IndexEntry, map[int64]fingerprint.ContentFingerprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.info_hash, t.site_id, t.torrent_id, t.fingerprint_id, t.name, t.size, t.save_path, t.source_client,
		       f.total_size, f.file_count, f.largest_file_size, f.files_hash
		FROM torrent_index t
		JOIN content_fingerprints f ON f.id = t.fingerprint_id
	`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var entries []IndexEntry
	fingerprints := make(map[int64]fingerprint.ContentFingerprint)

	for rows.Next() {
		var e IndexEntry
		var torrentID, name, savePath, sourceClient sql.NullString
		var fp fingerprint.ContentFingerprint
		var filesHash sql.NullString

		err := rows.Scan(&e.ID, &e.InfoHash, &e.SiteID, &torrentID, &e.FingerprintID, &name, &e.Size, &savePath, &sourceClient,
			&fp.TotalSize, &fp.FileCount, &fp.LargestFileSize, &filesHash)
		if err != nil {
			return nil, nil, err
		}
		e.TorrentID = torrentID.String
		e.Name = name.String
		e.SavePath = savePath.String
		e.SourceClient = sourceClient.String
		fp.FilesHash = filesHash.String

		entries = append(entries, e)
		fingerprints[e.FingerprintID] = fp
	}

	return entries, fingerprints, rows.Err()
}

func (s *TorrentIndexStore) DeleteBySite(ctx context.Context, siteID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM torrent_index WHERE site_id = ?`, siteID)
	return err
}

func (s *TorrentIndexStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM torrent_index`)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM content_fingerprints`)
	return err
}

func (s *TorrentIndexStore) CountBySite(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT site_id, COUNT(*) FROM torrent_index GROUP BY site_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var siteID string
		var count int
		if err := rows.Scan(&siteID, &count); err != nil {
			return nil, err
		}
		out[siteID] = count
	}
	return out, rows.Err()
}
