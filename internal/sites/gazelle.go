// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sites

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

type gazelleTemplate struct {
	cfg SiteConfig
}

func (t *gazelleTemplate) TemplateType() TemplateType { return Gazelle }

func (t *gazelleTemplate) BuildDownloadURL(torrentID string) (string, error) {
	if t.cfg.Passkey == "" {
		return "", &TemplateError{Err: ErrMissingPasskey}
	}
	return t.cfg.BaseURL + substitute(t.cfg.pattern(), torrentID, t.cfg.Passkey, t.cfg.Authkey), nil
}

// gazelleErrorMarkers are substrings a Gazelle JSON/HTML error body
// commonly contains; when present, they're surfaced as InvalidResponse
// detail instead of a bare "not bencode" message.
var gazelleErrorMarkers = []string{"error", "failure"}

func (t *gazelleTemplate) DownloadTorrent(ctx context.Context, httpClient *http.Client, torrentID string) ([]byte, error) {
	downloadURL, err := t.BuildDownloadURL(torrentID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Graft/1.0")
	if t.cfg.Cookie != "" {
		req.Header.Set("Cookie", t.cfg.Cookie)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &TemplateError{Err: ErrDownloadFailed, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TemplateError{Err: ErrDownloadFailed}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TemplateError{Err: ErrDownloadFailed, Detail: err.Error()}
	}

	if isBencodeDict(body) {
		return body, nil
	}

	if utf8.Valid(body) {
		text := string(body)
		lower := strings.ToLower(text)
		for _, marker := range gazelleErrorMarkers {
			if strings.Contains(lower, marker) {
				return nil, &TemplateError{Err: ErrInvalidResponse, Detail: text}
			}
		}
	}

	return nil, &TemplateError{Err: ErrInvalidResponse}
}
