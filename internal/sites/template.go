// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package sites builds per-tracker download URLs and fetches .torrent
// payloads for the three private-tracker framework families this
// project supports: NexusPHP, Unit3D, and Gazelle. Each family differs
// in how it encodes credentials into the download URL and how it
// signals an authentication failure in the response body.
package sites

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TemplateType names the tracker framework family a SiteConfig targets.
type TemplateType string

const (
	NexusPHP TemplateType = "NexusPHP"
	Unit3D   TemplateType = "Unit3D"
	Gazelle  TemplateType = "Gazelle"
)

// ParseTemplateType validates a user-supplied template type string.
func ParseTemplateType(s string) (TemplateType, error) {
	switch TemplateType(s) {
	case NexusPHP, Unit3D, Gazelle:
		return TemplateType(s), nil
	default:
		return "", fmt.Errorf("unknown template type %q", s)
	}
}

// Errors a SiteTemplate can return. Callers distinguish them with
// errors.Is; TemplateError additionally carries a free-text Detail for
// InvalidResponse bodies that echo the tracker's own error text.
var (
	ErrMissingPasskey  = errors.New("missing passkey")
	ErrMissingCookie   = errors.New("missing or expired cookie")
	ErrDownloadFailed  = errors.New("download request failed")
	ErrInvalidResponse = errors.New("invalid torrent response")
)

// TemplateError wraps one of the sentinel errors above with a message,
// and for InvalidResponse, the tracker's own error text when available.
type TemplateError struct {
	Err    error
	Detail string
}

func (e *TemplateError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// SiteConfig is the persisted, user-editable configuration for one
// tracker. download_pattern carries {id}/{passkey}/{authkey}
// placeholders; when empty, DefaultDownloadPattern supplies the
// per-template default.
type SiteConfig struct {
	ID              string
	Name            string
	BaseURL         string
	TemplateType    TemplateType
	TrackerDomains  []string
	DownloadPattern string
	Passkey         string
	Authkey         string
	Cookie          string
	Enabled         bool
	RateLimitRPM    *int
}

// DefaultDownloadPattern returns the per-template default used when
// SiteConfig.DownloadPattern is unset.
func DefaultDownloadPattern(t TemplateType) string {
	switch t {
	case NexusPHP:
		return "/download.php?id={id}&passkey={passkey}"
	case Unit3D:
		return "/torrent/download/{id}.{passkey}"
	case Gazelle:
		return "/torrents.php?action=download&id={id}&authkey={authkey}&torrent_pass={passkey}"
	default:
		return ""
	}
}

func (c SiteConfig) pattern() string {
	if c.DownloadPattern != "" {
		return c.DownloadPattern
	}
	return DefaultDownloadPattern(c.TemplateType)
}

// Template is the capability a SiteConfig exposes once constructed:
// build the download URL for a torrent id, and fetch its bytes.
type Template interface {
	TemplateType() TemplateType
	BuildDownloadURL(torrentID string) (string, error)
	DownloadTorrent(ctx context.Context, httpClient *http.Client, torrentID string) ([]byte, error)
}

// New dispatches a SiteConfig to its concrete Template implementation.
// This is the single dispatch point; callers never type-switch on
// TemplateType themselves.
func New(cfg SiteConfig) (Template, error) {
	switch cfg.TemplateType {
	case NexusPHP:
		return &nexusPHPTemplate{cfg: cfg}, nil
	case Unit3D:
		return &unit3DTemplate{cfg: cfg}, nil
	case Gazelle:
		return &gazelleTemplate{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported template type %q", cfg.TemplateType)
	}
}

// substitute replaces {id}/{passkey}/{authkey} placeholders in pattern.
func substitute(pattern, id, passkey, authkey string) string {
	r := strings.NewReplacer("{id}", id, "{passkey}", passkey, "{authkey}", authkey)
	return r.Replace(pattern)
}

// isBencodeDict validates only the first byte, per this project's
// non-goal of not implementing a real bencode parser.
func isBencodeDict(body []byte) bool {
	return len(body) > 0 && body[0] == 'd'
}
