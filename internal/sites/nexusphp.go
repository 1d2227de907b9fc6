// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sites

import (
	"context"
	"io"
	"net/http"
	"strings"
)

type nexusPHPTemplate struct {
	cfg SiteConfig
}

func (t *nexusPHPTemplate) TemplateType() TemplateType { return NexusPHP }

func (t *nexusPHPTemplate) BuildDownloadURL(torrentID string) (string, error) {
	if t.cfg.Passkey == "" {
		return "", &TemplateError{Err: ErrMissingPasskey}
	}
	return t.cfg.BaseURL + substitute(t.cfg.pattern(), torrentID, t.cfg.Passkey, ""), nil
}

// loginMarkers are substrings NexusPHP sites commonly return in their
// HTML login page when a cookie has expired.
var loginMarkers = []string{"login", "登录"}

func (t *nexusPHPTemplate) DownloadTorrent(ctx context.Context, httpClient *http.Client, torrentID string) ([]byte, error) {
	downloadURL, err := t.BuildDownloadURL(torrentID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
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

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		lower := strings.ToLower(string(body))
		for _, marker := range loginMarkers {
			if strings.Contains(lower, marker) {
				return nil, &TemplateError{Err: ErrMissingCookie}
			}
		}
		return nil, &TemplateError{Err: ErrInvalidResponse}
	}

	if !isBencodeDict(body) {
		return nil, &TemplateError{Err: ErrInvalidResponse}
	}

	return body, nil
}
