// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package indexsvc imports a BitTorrent client's torrents into the
// persistent cross-tracker index and maintains the in-memory matcher
// that import feeds.
package indexsvc

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/fingerprint"
	"github.com/ptgraft/graft/internal/metrics"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/tracker"
)

// ImportStats tallies the outcome of one ImportFromClient run.
type ImportStats struct {
	Total        int
	Imported     int
	Skipped      int
	Unrecognized int
}

// Stats summarizes the current index contents.
type Stats struct {
	TotalEntries int
	PerSite      []SiteCount
}

type SiteCount struct {
	SiteID string
	Count  int
}

// Service owns the persistent torrent index and the in-memory matcher
// rebuilt from it. The matcher is read far more often than the index
// changes, so concurrent rebuild requests are collapsed with
// singleflight rather than each doing the full join query.
type Service struct {
	indexStore       *models.TorrentIndexStore
	fingerprintStore *models.FingerprintStore
	identifier       *tracker.Identifier

	mu      sync.RWMutex
	matcher *fingerprint.Matcher
	sf      singleflight.Group

	metrics *metrics.Manager
}

func New(indexStore *models.TorrentIndexStore, fingerprintStore *models.FingerprintStore, identifier *tracker.Identifier) *Service {
	return &Service{
		indexStore:       indexStore,
		fingerprintStore: fingerprintStore,
		identifier:       identifier,
	}
}

// WithMetrics attaches a metrics.Manager that ImportFromClient reports
// outcome counts to. Optional: a Service with no metrics attached works
// identically, just without the /metrics counters.
func (s *Service) WithMetrics(m *metrics.Manager) *Service {
	s.metrics = m
	return s
}

// ImportFromClient fetches every torrent from client, identifies its
// tracker site, computes its content fingerprint, and upserts an index
// entry for it. Torrents whose tracker can't be identified, or that
// already have an index entry for (info_hash, site_id), are counted
// but not re-processed.
func (s *Service) ImportFromClient(ctx context.Context, client btclient.Client, clientID string) (ImportStats, error) {
	var stats ImportStats

	torrents, err := client.GetTorrents(ctx)
	if err != nil {
		return stats, err
	}
	stats.Total = len(torrents)

	for _, t := range torrents {
		if err := s.importOne(ctx, client, clientID, t, &stats); err != nil {
			log.Warn().Err(err).Str("hash", t.Hash).Msg("failed to import torrent")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordImport("imported", stats.Imported)
		s.metrics.RecordImport("skipped", stats.Skipped)
		s.metrics.RecordImport("unrecognized", stats.Unrecognized)
	}

	return stats, nil
}

func (s *Service) importOne(ctx context.Context, client btclient.Client, clientID string, t btclient.TorrentInfo, stats *ImportStats) error {
	trackers, err := client.GetTorrentTrackers(ctx, t.Hash)
	if err != nil {
		log.Debug().Err(err).Str("hash", t.Hash).Msg("failed to fetch trackers, proceeding with empty list")
		trackers = nil
	}

	siteID, torrentID, ok := s.identifier.IdentifyFromTrackers(trackers)
	if !ok {
		stats.Unrecognized++
		return nil
	}

	existing, err := s.indexStore.Get(ctx, t.Hash, siteID)
	if err != nil {
		return err
	}
	if existing.InfoHash != "" {
		stats.Skipped++
		return nil
	}

	fp := s.computeFingerprint(ctx, client, t)

	fingerprintID, err := s.fingerprintStore.GetOrCreate(ctx, fp)
	if err != nil {
		return err
	}

	err = s.indexStore.Upsert(ctx, models.IndexEntry{
		InfoHash:      t.Hash,
		SiteID:        siteID,
		TorrentID:     torrentID,
		FingerprintID: fingerprintID,
		Name:          t.Name,
		Size:          t.Size,
		SavePath:      t.SavePath,
		SourceClient:  clientID,
	})
	if err != nil {
		return err
	}

	stats.Imported++
	return nil
}

// computeFingerprint fetches the torrent's files and fingerprints them;
// on any failure to list files it falls back to the size-only
// fingerprint, which is always available from GetTorrents.
func (s *Service) computeFingerprint(ctx context.Context, client btclient.Client, t btclient.TorrentInfo) fingerprint.ContentFingerprint {
	files, err := client.GetTorrentFiles(ctx, t.Hash)
	if err != nil || len(files) == 0 {
		return fingerprint.FromSize(t.Size, 1, t.Size)
	}

	fpFiles := make([]fingerprint.File, 0, len(files))
	for _, f := range files {
		fpFiles = append(fpFiles, fingerprint.File{Name: f.Name, Size: f.Size})
	}
	return fingerprint.FromFiles(fpFiles)
}

// BuildMatcher rebuilds the in-memory matcher from the persistent index,
// collapsing concurrent rebuild requests into one query.
func (s *Service) BuildMatcher(ctx context.Context) (*fingerprint.Matcher, error) {
	v, err, _ := s.sf.Do("build", func() (any, error) {
		entries, fingerprints, err := s.indexStore.All(ctx)
		if err != nil {
			return nil, err
		}

		m := fingerprint.NewMatcher()
		for _, e := range entries {
			fp, ok := fingerprints[e.FingerprintID]
			if !ok {
				continue
			}
			m.Add(fingerprint.Entry{
				InfoHash:     e.InfoHash,
				SiteID:       e.SiteID,
				TorrentID:    e.TorrentID,
				Fingerprint:  fp,
				Name:         e.Name,
				Size:         e.Size,
				SavePath:     e.SavePath,
				SourceClient: e.SourceClient,
			})
		}

		s.mu.Lock()
		s.matcher = m
		s.mu.Unlock()

		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*fingerprint.Matcher), nil
}

// Matcher returns the most recently built matcher, building one if none
// exists yet.
func (s *Service) Matcher(ctx context.Context) (*fingerprint.Matcher, error) {
	s.mu.RLock()
	m := s.matcher
	s.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	return s.BuildMatcher(ctx)
}

func (s *Service) Clear(ctx context.Context) error {
	if err := s.indexStore.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.matcher = fingerprint.NewMatcher()
	s.mu.Unlock()
	return nil
}

func (s *Service) ClearBySite(ctx context.Context, siteID string) error {
	if err := s.indexStore.DeleteBySite(ctx, siteID); err != nil {
		return err
	}
	// The matcher must be rebuilt to drop the cleared site's entries;
	// fingerprint rows may now be orphaned, which is acceptable (they
	// are rebuilt fresh on the next import).
	_, err := s.BuildMatcher(ctx)
	return err
}

func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	counts, err := s.indexStore.CountBySite(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{}
	for siteID, count := range counts {
		stats.TotalEntries += count
		stats.PerSite = append(stats.PerSite, SiteCount{SiteID: siteID, Count: count})
	}
	sort.Slice(stats.PerSite, func(i, j int) bool {
		return stats.PerSite[i].Count > stats.PerSite[j].Count
	})

	return stats, nil
}
