// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package fingerprint

import "sort"

// Entry is an indexed torrent: its content fingerprint plus the metadata
// needed to act on a match (which site/client it lives on, where it is
// saved). It mirrors the persisted torrent_index row joined to its
// content_fingerprints row.
type Entry struct {
	InfoHash     string
	SiteID       string
	TorrentID    string
	Fingerprint  ContentFingerprint
	Name         string
	Size         uint64
	SavePath     string
	SourceClient string
}

// Match pairs an indexed Entry with the confidence of its match against
// the fingerprint a caller searched for.
type Match struct {
	Entry      Entry
	Result     MatchResult
	Confidence float64
}

// Matcher is an in-memory index of Entry values bucketed by TotalSize.
// total_size is a near-unique 64-bit discriminator in practice, so a
// lookup degrades to a scan of one small bucket rather than the whole
// index. Matcher is not safe for concurrent Add and lookups; callers
// rebuild it wholesale (see indexsvc.Service.BuildMatcher) rather than
// mutate it incrementally under load.
type Matcher struct {
	buckets map[uint64][]Entry
	count   int
}

// NewMatcher returns an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{buckets: make(map[uint64][]Entry)}
}

// Add indexes a single entry under its fingerprint's total size bucket.
func (m *Matcher) Add(e Entry) {
	m.buckets[e.Fingerprint.TotalSize] = append(m.buckets[e.Fingerprint.TotalSize], e)
	m.count++
}

// Len returns the number of indexed entries.
func (m *Matcher) Len() int { return m.count }

// IsEmpty reports whether the matcher has no indexed entries.
func (m *Matcher) IsEmpty() bool { return m.count == 0 }

// Clear removes all indexed entries.
func (m *Matcher) Clear() {
	m.buckets = make(map[uint64][]Entry)
	m.count = 0
}

// FindMatches returns every usable match (Medium, High, or Exact
// confidence) for fp, ranked highest confidence first. Ties preserve
// index insertion order.
func (m *Matcher) FindMatches(fp ContentFingerprint) []Match {
	return m.findMatches(fp, "")
}

// FindCrossSiteMatches behaves like FindMatches but additionally drops
// any entry whose SiteID equals excludeSite, which is how the reseed
// pipeline avoids proposing a site re-seed itself.
func (m *Matcher) FindCrossSiteMatches(fp ContentFingerprint, excludeSite string) []Match {
	return m.findMatches(fp, excludeSite)
}

func (m *Matcher) findMatches(fp ContentFingerprint, excludeSite string) []Match {
	bucket := m.buckets[fp.TotalSize]
	if len(bucket) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(bucket))
	for _, candidate := range bucket {
		if excludeSite != "" && candidate.SiteID == excludeSite {
			continue
		}

		result := Matches(fp, candidate.Fingerprint)
		if !result.Usable() {
			continue
		}

		matches = append(matches, Match{
			Entry:      candidate,
			Result:     result,
			Confidence: result.Score(),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return matches
}
