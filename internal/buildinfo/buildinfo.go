// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package buildinfo exposes the version/commit/date triple the build
// injects via -ldflags; the admin API's /api/health endpoint reports
// Version.
package buildinfo

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Version, Commit, and Date are overridden at build time via
// -ldflags "-X github.com/ptgraft/graft/internal/buildinfo.Version=...".
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// UserAgent identifies this build as "graft/<version> (<os>/<arch>)".
// No outbound request sets it: the Unit3D and Gazelle site templates
// send a fixed "Graft/1.0", and every other request carries Go's
// default User-Agent.
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("graft/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// String renders the three build fields as human-readable lines, for
// `graft version`.
func String() string {
	return fmt.Sprintf("Version: %s\nCommit: %s\nBuild date: %s\n", Version, Commit, Date)
}

type info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// JSON renders the three build fields as a JSON object with keys
// version, commit and date.
func JSON() ([]byte, error) {
	return json.Marshal(info{Version: Version, Commit: Commit, Date: Date})
}
