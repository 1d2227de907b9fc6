// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"errors"
	"strings"

	"github.com/ptgraft/graft/internal/domain"
)

type OpenOptions struct {
	SQLitePath string
}

// Open validates opts and opens the SQLite database at opts.SQLitePath.
func Open(opts OpenOptions) (*DB, error) {
	if strings.TrimSpace(opts.SQLitePath) == "" {
		return nil, errors.New("sqlite database path is required")
	}
	return New(opts.SQLitePath)
}

// OpenFromConfig opens the database path resolved from cfg.DBPath, the
// GRAFT_DB_PATH / GRAFT_DATA_DIR override chain applied by
// domain.Config.ApplyEnvOverrides.
func OpenFromConfig(cfg *domain.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}

	return Open(OpenOptions{SQLitePath: cfg.DBPath})
}
