// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "errors"

var (
	ErrClientNotFound       = errors.New("client not found")
	ErrSiteNotFound         = errors.New("site not found")
	ErrDuplicateID          = errors.New("id already exists")
	ErrTorrentIndexConflict = errors.New("torrent index entry already exists for this info hash and site")
)
