// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package btclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// qbittorrentClient drives the qBittorrent WebUI API directly rather
// than through an existing SDK: the cookie-session login, the 403 ->
// re-login-then-retry dance, and the fact that /api/v2/torrents/add
// never returns the new torrent's hash are all protocol-level details
// this adapter must own precisely.
type qbittorrentClient struct {
	cfg    ClientConfig
	http   *http.Client
	mu     sync.Mutex
	cookie string
}

func newQBittorrentClient(cfg ClientConfig, httpClient *http.Client) *qbittorrentClient {
	return &qbittorrentClient{cfg: cfg, http: httpClient}
}

func (c *qbittorrentClient) ClientType() ClientType { return QBittorrent }
func (c *qbittorrentClient) ClientID() string       { return c.cfg.ID }

func (c *qbittorrentClient) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("password", c.cfg.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL()+"/api/v2/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return wrapErr(ErrConnectionFailed, err.Error())
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", c.cfg.BaseURL())

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapErr(ErrConnectionFailed, err.Error())
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	text := string(body)
	if strings.Contains(text, "Fails") || strings.Contains(text, "fail") {
		return wrapErr(ErrAuthenticationFailed, "")
	}

	var sid string
	for _, cookie := range resp.Cookies() {
		if cookie.Name == "SID" {
			sid = cookie.Value
		}
	}
	if sid == "" {
		return wrapErr(ErrAuthenticationFailed, "no SID cookie returned")
	}

	c.mu.Lock()
	c.cookie = "SID=" + sid
	c.mu.Unlock()
	return nil
}

func (c *qbittorrentClient) sessionCookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cookie
}

// do issues an authenticated request, logging in first if no session
// exists yet and retrying exactly once after a fresh login on 403.
func (c *qbittorrentClient) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if c.sessionCookie() == "" {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	// Buffer the body so the post-403 retry can resend it.
	var payload []byte
	if body != nil {
		b, err := io.ReadAll(body)
		if err != nil {
			return nil, wrapErr(ErrRequestFailed, err.Error())
		}
		payload = b
	}

	doOnce := func() (*http.Response, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL()+path, reqBody)
		if err != nil {
			return nil, wrapErr(ErrRequestFailed, err.Error())
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Cookie", c.sessionCookie())
		req.Header.Set("Referer", c.cfg.BaseURL())
		return c.http.Do(req)
	}

	resp, err := doOnce()
	if err != nil {
		return nil, wrapErr(ErrConnectionFailed, err.Error())
	}

	if resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		if err := c.login(ctx); err != nil {
			return nil, err
		}
		resp, err = doOnce()
		if err != nil {
			return nil, wrapErr(ErrConnectionFailed, err.Error())
		}
	}

	return resp, nil
}

func (c *qbittorrentClient) TestConnection(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/app/version", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

type qbitTorrent struct {
	Hash     string  `json:"hash"`
	Name     string  `json:"name"`
	Size     uint64  `json:"size"`
	SavePath string  `json:"save_path"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
}

// qbitStateMap translates qBittorrent's native state strings into the
// client-independent TorrentState set.
var qbitStateMap = map[string]TorrentState{
	"downloading":       StateDownloading,
	"metaDL":            StateDownloading,
	"stalledDL":         StateStalled,
	"forcedDL":          StateDownloading,
	"uploading":         StateSeeding,
	"stalledUP":         StateSeeding,
	"forcedUP":          StateSeeding,
	"pausedDL":          StatePaused,
	"pausedUP":          StatePaused,
	"queuedDL":          StateQueued,
	"queuedUP":          StateQueued,
	"checkingDL":        StateChecking,
	"checkingUP":        StateChecking,
	"checkingResumeData": StateChecking,
	"allocating":        StateDownloading,
	"error":             StateError,
	"missingFiles":      StateError,
	"unknown":           StateUnknown,
}

func mapQbitState(native string) TorrentState {
	if state, ok := qbitStateMap[native]; ok {
		return state
	}
	return StateUnknown
}

func (t qbitTorrent) toInfo() TorrentInfo {
	return TorrentInfo{
		Hash:     strings.ToLower(t.Hash),
		Name:     t.Name,
		Size:     t.Size,
		SavePath: t.SavePath,
		State:    mapQbitState(t.State),
		Progress: t.Progress,
	}
}

func (c *qbittorrentClient) GetTorrents(ctx context.Context) ([]TorrentInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/info", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var torrents []qbitTorrent
	if err := json.NewDecoder(resp.Body).Decode(&torrents); err != nil {
		return nil, wrapErr(ErrInvalidResponse, err.Error())
	}

	out := make([]TorrentInfo, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, t.toInfo())
	}
	return out, nil
}

func (c *qbittorrentClient) GetTorrent(ctx context.Context, hash string) (TorrentInfo, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/info?hashes="+hash, nil, "")
	if err != nil {
		return TorrentInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TorrentInfo{}, wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var torrents []qbitTorrent
	if err := json.NewDecoder(resp.Body).Decode(&torrents); err != nil {
		return TorrentInfo{}, wrapErr(ErrInvalidResponse, err.Error())
	}
	if len(torrents) == 0 {
		return TorrentInfo{}, wrapErr(ErrTorrentNotFound, hash)
	}
	return torrents[0].toInfo(), nil
}

type qbitFile struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

func (c *qbittorrentClient) GetTorrentFiles(ctx context.Context, hash string) ([]TorrentFile, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/files?hash="+hash, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, wrapErr(ErrTorrentNotFound, hash)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var files []qbitFile
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, wrapErr(ErrInvalidResponse, err.Error())
	}

	out := make([]TorrentFile, 0, len(files))
	for _, f := range files {
		out = append(out, TorrentFile{Name: f.Name, Size: f.Size})
	}
	return out, nil
}

type qbitTracker struct {
	URL string `json:"url"`
}

// pseudoTrackers are qBittorrent's synthetic tracker-list entries for
// decentralized peer discovery, not real tracker announce URLs.
var pseudoTrackers = []string{"** [DHT] **", "** [PeX] **", "** [LSD] **"}

func (c *qbittorrentClient) GetTorrentTrackers(ctx context.Context, hash string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v2/torrents/trackers?hash="+hash, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, wrapErr(ErrTorrentNotFound, hash)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	var trackers []qbitTracker
	if err := json.NewDecoder(resp.Body).Decode(&trackers); err != nil {
		return nil, wrapErr(ErrInvalidResponse, err.Error())
	}

	out := make([]string, 0, len(trackers))
	for _, tr := range trackers {
		if isPseudoTracker(tr.URL) {
			continue
		}
		out = append(out, tr.URL)
	}
	return out, nil
}

func isPseudoTracker(url string) bool {
	if url == "" {
		return true
	}
	for _, p := range pseudoTrackers {
		if url == p {
			return true
		}
	}
	return false
}

// AddTorrent uploads torrentData as a multipart form. qBittorrent's
// add endpoint replies with a bare "Ok." and never the new torrent's
// hash, so the returned hash is always empty; callers must source the
// hash elsewhere (the match's precomputed target hash).
func (c *qbittorrentClient) AddTorrent(ctx context.Context, torrentData []byte, opts AddTorrentOptions) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="torrents"; filename="torrent.torrent"`)
	header.Set("Content-Type", "application/x-bittorrent")
	part, err := w.CreatePart(header)
	if err != nil {
		return "", wrapErr(ErrRequestFailed, err.Error())
	}
	if _, err := part.Write(torrentData); err != nil {
		return "", wrapErr(ErrRequestFailed, err.Error())
	}

	if opts.SavePath != "" {
		w.WriteField("savepath", opts.SavePath)
	}
	if opts.Category != "" {
		w.WriteField("category", opts.Category)
	}
	if len(opts.Tags) > 0 {
		w.WriteField("tags", strings.Join(opts.Tags, ","))
	}
	if opts.Paused {
		w.WriteField("paused", "true")
	}
	if opts.SkipChecking {
		w.WriteField("skip_checking", "true")
	}
	if err := w.Close(); err != nil {
		return "", wrapErr(ErrRequestFailed, err.Error())
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/add", &buf, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Ok") {
		return "", wrapErr(ErrRequestFailed, fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)))
	}

	return "", nil
}

func (c *qbittorrentClient) torrentAction(ctx context.Context, action, hash string) error {
	form := url.Values{}
	form.Set("hashes", hash)
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/"+action, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

func (c *qbittorrentClient) RemoveTorrent(ctx context.Context, hash string, deleteFiles bool) error {
	form := url.Values{}
	form.Set("hashes", hash)
	form.Set("deleteFiles", strconv.FormatBool(deleteFiles))
	resp, err := c.do(ctx, http.MethodPost, "/api/v2/torrents/delete", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return wrapErr(ErrRequestFailed, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return nil
}

func (c *qbittorrentClient) PauseTorrent(ctx context.Context, hash string) error {
	return c.torrentAction(ctx, "pause", hash)
}

func (c *qbittorrentClient) ResumeTorrent(ctx context.Context, hash string) error {
	return c.torrentAction(ctx, "resume", hash)
}

func (c *qbittorrentClient) RecheckTorrent(ctx context.Context, hash string) error {
	return c.torrentAction(ctx, "recheck", hash)
}

