// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btclient provides a uniform interface over the BitTorrent
// clients this project can index and reseed into: qBittorrent (WebUI
// API, cookie session) and Transmission (JSON-RPC, CSRF session id).
// Both adapters are hand-rolled against net/http rather than wrapped
// around an existing SDK, because the retry/session semantics below
// (403-then-relogin, 409-then-resend) are exact low-level protocol
// behavior this project owns, not something a generic client library
// should abstract away.
package btclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ClientType names a supported BitTorrent client implementation.
type ClientType string

const (
	QBittorrent ClientType = "qbittorrent"
	Transmission ClientType = "transmission"
)

// Sentinel errors every adapter maps its failures onto, so callers can
// branch with errors.Is regardless of which client is in use.
var (
	ErrConnectionFailed    = errors.New("connection failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRequestFailed       = errors.New("request failed")
	ErrInvalidResponse     = errors.New("invalid response")
	ErrTorrentNotFound     = errors.New("torrent not found")
	ErrNotSupported        = errors.New("operation not supported by this client")
)

// ClientError wraps one of the sentinel errors above with client-specific
// detail.
type ClientError struct {
	Err    error
	Detail string
}

func (e *ClientError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Detail)
}

func (e *ClientError) Unwrap() error { return e.Err }

func wrapErr(err error, detail string) error {
	return &ClientError{Err: err, Detail: detail}
}

// TorrentState normalizes each client's native status strings/codes into
// a small, client-independent set.
type TorrentState string

const (
	StateDownloading TorrentState = "downloading"
	StateSeeding     TorrentState = "seeding"
	StatePaused      TorrentState = "paused"
	StateQueued      TorrentState = "queued"
	StateChecking    TorrentState = "checking"
	StateStalled     TorrentState = "stalled"
	StateError       TorrentState = "error"
	StateUnknown     TorrentState = "unknown"
)

// TorrentInfo is the normalized shape every adapter returns from
// GetTorrents/GetTorrent.
type TorrentInfo struct {
	Hash     string
	Name     string
	Size     uint64
	SavePath string
	State    TorrentState
	Progress float64
}

// TorrentFile is one file within a torrent's payload.
type TorrentFile struct {
	Name string
	Size uint64
}

// AddTorrentOptions controls how AddTorrent stages a new download.
type AddTorrentOptions struct {
	SavePath     string
	Category     string
	Tags         []string
	Paused       bool
	SkipChecking bool
}

// ClientConfig is the persisted configuration for one BitTorrent client
// instance.
type ClientConfig struct {
	ID         string
	Name       string
	ClientType ClientType
	Host       string
	Port       int
	Username   string
	Password   string
	UseHTTPS   bool
}

// BaseURL derives the client's root URL from Host/Port/UseHTTPS.
func (c ClientConfig) BaseURL() string {
	scheme := "http"
	if c.UseHTTPS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Client is the capability every adapter implements. Add/Remove/Pause
// etc. are synchronous round trips; callers that need timeouts pass a
// context with a deadline.
type Client interface {
	ClientType() ClientType
	ClientID() string
	TestConnection(ctx context.Context) error
	GetTorrents(ctx context.Context) ([]TorrentInfo, error)
	GetTorrent(ctx context.Context, hash string) (TorrentInfo, error)
	GetTorrentFiles(ctx context.Context, hash string) ([]TorrentFile, error)
	GetTorrentTrackers(ctx context.Context, hash string) ([]string, error)
	// AddTorrent stages torrentData (a raw .torrent payload) for download.
	// The returned hash may be empty: qBittorrent's add endpoint does not
	// return the new torrent's hash, so callers must not depend on it
	// being populated (see ReseedMatch.TargetHash in internal/services/reseed).
	AddTorrent(ctx context.Context, torrentData []byte, opts AddTorrentOptions) (hash string, err error)
	RemoveTorrent(ctx context.Context, hash string, deleteFiles bool) error
	PauseTorrent(ctx context.Context, hash string) error
	ResumeTorrent(ctx context.Context, hash string) error
	RecheckTorrent(ctx context.Context, hash string) error
}

const defaultHTTPTimeout = 30 * time.Second

// New dispatches a ClientConfig to its concrete adapter. This is the
// single dispatch point for client polymorphism.
func New(cfg ClientConfig) (Client, error) {
	httpClient := &http.Client{Timeout: defaultHTTPTimeout}

	switch cfg.ClientType {
	case QBittorrent:
		return newQBittorrentClient(cfg, httpClient), nil
	case Transmission:
		return newTransmissionClient(cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported client type %q", cfg.ClientType)
	}
}
