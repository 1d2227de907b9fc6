// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tracker maps tracker announce/download URLs to an internal
// site_id, and extracts the per-site torrent id embedded in those URLs.
// Trackers are identified by domain rather than by any stable numeric
// id, since that's the only thing a torrent's tracker list reliably
// carries.
package tracker

import (
	"net/url"
	"strings"
)

// Identifier holds the domain -> site_id mapping. The zero value is not
// ready for use; construct with New, which seeds the built-in table.
type Identifier struct {
	domains map[string]string
}

// New returns an Identifier seeded with the built-in tracker domain table.
func New() *Identifier {
	id := &Identifier{domains: make(map[string]string)}
	for domain, siteID := range builtinDomains {
		id.domains[domain] = siteID
	}
	return id
}

// RegisterSite adds or overwrites a domain -> site_id mapping at runtime.
func (id *Identifier) RegisterSite(domain, siteID string) {
	id.domains[strings.ToLower(domain)] = siteID
}

// Identify resolves rawURL to a site_id and, when present, the torrent id
// embedded in its query string or path. The second return value is the
// torrent id (empty if none was found); ok is false when the host isn't
// recognized at all, which callers should treat as "skip, unrecognized"
// rather than as an error.
func (id *Identifier) Identify(rawURL string) (siteID string, torrentID string, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", false
	}

	siteID, ok = id.findSiteByHost(u.Hostname())
	if !ok {
		return "", "", false
	}

	return siteID, extractTorrentID(u), true
}

// IdentifyFromTrackers returns the first successful identification across
// a torrent's tracker URL list, in input order.
func (id *Identifier) IdentifyFromTrackers(trackerURLs []string) (siteID string, torrentID string, ok bool) {
	for _, raw := range trackerURLs {
		if siteID, torrentID, ok = id.Identify(raw); ok {
			return siteID, torrentID, true
		}
	}
	return "", "", false
}

// findSiteByHost resolves a host in three passes: exact match, then the
// last two DNS labels, then the last three. Trackers commonly announce
// from subdomains (kp.m-team.cc) while being registered in the map under
// the registrable domain (m-team.cc), or vice versa.
func (id *Identifier) findSiteByHost(host string) (string, bool) {
	host = strings.ToLower(host)

	if siteID, ok := id.domains[host]; ok {
		return siteID, true
	}

	labels := strings.Split(host, ".")

	if len(labels) >= 2 {
		if siteID, ok := id.domains[strings.Join(labels[len(labels)-2:], ".")]; ok {
			return siteID, true
		}
	}

	if len(labels) >= 3 {
		if siteID, ok := id.domains[strings.Join(labels[len(labels)-3:], ".")]; ok {
			return siteID, true
		}
	}

	return "", false
}

var torrentIDQueryParams = []string{"torrent_id", "id", "tid"}

// extractTorrentID first scans recognized query parameters in priority
// order, then falls back to walking path segments in reverse for the
// first one made entirely of ASCII digits.
func extractTorrentID(u *url.URL) string {
	q := u.Query()
	for _, param := range torrentIDQueryParams {
		if v := q.Get(param); v != "" {
			return v
		}
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if isAllDigits(segments[i]) {
			return segments[i]
		}
	}

	return ""
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
