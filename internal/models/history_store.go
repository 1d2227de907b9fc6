// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"time"

	"github.com/ptgraft/graft/internal/dbinterface"
)

type ReseedStatus string

const (
	ReseedSuccess ReseedStatus = "success"
	ReseedFailed  ReseedStatus = "failed"
)

// HistoryEntry records the outcome of one reseed attempt.
type HistoryEntry struct {
	ID         int64
	TaskID     string
	InfoHash   string
	SourceSite string
	TargetSite string
	Status     ReseedStatus
	Message    string
	CreatedAt  time.Time
}

type HistoryStore struct {
	db dbinterface.Querier
}

func NewHistoryStore(db dbinterface.Querier) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record inserts a history row synchronously, on the same call path as
// the reseed attempt it describes, so history never drifts from the
// client/site state that produced it.
func (s *HistoryStore) Record(ctx context.Context, e HistoryEntry) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reseed_history (task_id, info_hash, source_site, target_site, status, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullIfEmpty(e.TaskID), e.InfoHash, nullIfEmpty(e.SourceSite), e.TargetSite, string(e.Status), nullIfEmpty(e.Message))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func scanHistoryEntry(row interface{ Scan(dest ...any) error }) (HistoryEntry, error) {
	var e HistoryEntry
	var taskID, sourceSite, message sql.NullString
	var status string
	if err := row.Scan(&e.ID, &taskID, &e.InfoHash, &sourceSite, &e.TargetSite, &status, &message, &e.CreatedAt); err != nil {
		return HistoryEntry{}, err
	}
	e.TaskID = taskID.String
	e.SourceSite = sourceSite.String
	e.Status = ReseedStatus(status)
	e.Message = message.String
	return e, nil
}

const historyColumns = `id, task_id, info_hash, source_site, target_site, status, message, created_at`

func (s *HistoryStore) List(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM reseed_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListFiltered backs GET /api/reseed/history: limit/offset paginate,
// status narrows to one ReseedStatus when non-nil.
func (s *HistoryStore) ListFiltered(ctx context.Context, limit, offset int, status *ReseedStatus) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + historyColumns + ` FROM reseed_history`
	args := []any{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *HistoryStore) ListByTargetSite(ctx context.Context, targetSite string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM reseed_history WHERE target_site = ? ORDER BY id DESC LIMIT ?`, targetSite, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
