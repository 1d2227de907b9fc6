// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package reseed implements the cross-tracker matching and execution
// pipeline: given a source BitTorrent client and a set of candidate
// target sites, it previews which locally-held torrents could be
// reseeded elsewhere, and executes the download-and-add for each match.
package reseed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/fingerprint"
	"github.com/ptgraft/graft/internal/metrics"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/sites"
)

const siteDownloadTimeout = 30 * time.Second

// ReseedMatch is one candidate cross-seed opportunity: a torrent already
// held by the source client whose content the index also records on a
// target site.
type ReseedMatch struct {
	SourceHash string
	SourceSite string
	TargetSite string
	TargetHash string
	TargetID   string
	Name       string
	Size       uint64
	SavePath   string
	Confidence float64
	Result     fingerprint.MatchResult
}

// ExecuteRequest parameterizes one Execute run.
type ExecuteRequest struct {
	SourceClientID string
	TargetClientID string
	TargetSiteIDs  []string
	AddPaused      bool
	SkipChecking   bool
}

// PreviewStats summarizes a preview run.
type PreviewStats struct {
	Matches   []ReseedMatch
	TotalSize uint64
}

// ExecuteStats tallies the outcome of one Execute run.
type ExecuteStats struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

// Matcher is the subset of indexsvc.Service Preview/Execute needs: a
// freshly rebuilt in-memory matcher over the persistent index.
type Matcher interface {
	BuildMatcher(ctx context.Context) (*fingerprint.Matcher, error)
}

// Identifier is the subset of tracker.Identifier needed to resolve a
// source torrent's own site from its trackers.
type Identifier interface {
	IdentifyFromTrackers(trackerURLs []string) (siteID string, torrentID string, ok bool)
}

// Service drives the preview/execute pipeline. Rate limiting is
// per-target-site: a site with RateLimitRPM set gets a token-bucket
// limiter (burst 1) that Execute waits on; sites without one fall back
// to the global DefaultRequestInterval sleep between matches.
type Service struct {
	indexSvc   Matcher
	identifier Identifier
	history    *models.HistoryStore

	defaultRequestInterval time.Duration
	httpClient             *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	metrics *metrics.Manager
}

func New(indexSvc Matcher, identifier Identifier, history *models.HistoryStore, defaultRequestInterval time.Duration) *Service {
	return &Service{
		indexSvc:               indexSvc,
		identifier:             identifier,
		history:                history,
		defaultRequestInterval: defaultRequestInterval,
		httpClient:             &http.Client{Timeout: siteDownloadTimeout},
		limiters:               make(map[string]*rate.Limiter),
	}
}

// WithMetrics attaches a metrics.Manager that Execute reports per-match
// outcome counts to. Optional.
func (s *Service) WithMetrics(m *metrics.Manager) *Service {
	s.metrics = m
	return s
}

func (s *Service) limiterFor(site sites.SiteConfig) *rate.Limiter {
	if site.RateLimitRPM == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.limiters[site.ID]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(float64(*site.RateLimitRPM)/60.0), 1)
	s.limiters[site.ID] = l
	return l
}

// Preview lists source's torrents, rebuilds the matcher from the
// persistent index, and returns every cross-site match whose target
// site is in targetSites. Preview is side-effect-free.
func (s *Service) Preview(ctx context.Context, sourceClient btclient.Client, targetSites []string) (PreviewStats, error) {
	allowed := make(map[string]bool, len(targetSites))
	for _, id := range targetSites {
		allowed[id] = true
	}

	torrents, err := sourceClient.GetTorrents(ctx)
	if err != nil {
		return PreviewStats{}, err
	}

	matcher, err := s.indexSvc.BuildMatcher(ctx)
	if err != nil {
		return PreviewStats{}, err
	}

	var stats PreviewStats
	for _, t := range torrents {
		fp := s.computeFingerprint(ctx, sourceClient, t)

		sourceSite := ""
		if trackers, err := sourceClient.GetTorrentTrackers(ctx, t.Hash); err == nil {
			if siteID, _, ok := s.identifier.IdentifyFromTrackers(trackers); ok {
				sourceSite = siteID
			}
		}

		for _, m := range matcher.FindCrossSiteMatches(fp, sourceSite) {
			if !allowed[m.Entry.SiteID] {
				continue
			}
			stats.Matches = append(stats.Matches, ReseedMatch{
				SourceHash: t.Hash,
				SourceSite: sourceSite,
				TargetSite: m.Entry.SiteID,
				TargetHash: strings.ToLower(m.Entry.InfoHash),
				TargetID:   m.Entry.TorrentID,
				Name:       t.Name,
				Size:       t.Size,
				SavePath:   t.SavePath,
				Confidence: m.Confidence,
				Result:     m.Result,
			})
			stats.TotalSize += t.Size
		}
	}

	return stats, nil
}

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

// Execute re-runs Preview, then sequentially attempts to add each match
// to targetClient, recording a history entry for every outcome.
// Processing order follows Preview's output and is never reordered.
func (s *Service) Execute(ctx context.Context, req ExecuteRequest, sourceClient, targetClient btclient.Client, siteConfigs map[string]sites.SiteConfig) (ExecuteStats, error) {
	preview, err := s.Preview(ctx, sourceClient, req.TargetSiteIDs)
	if err != nil {
		return ExecuteStats{}, err
	}

	existing, err := existingHashSet(ctx, targetClient)
	if err != nil {
		return ExecuteStats{}, err
	}

	stats := ExecuteStats{Total: len(preview.Matches)}

	for i, match := range preview.Matches {
		outcome, message := s.executeOne(ctx, req, match, targetClient, siteConfigs, existing)

		switch outcome {
		case outcomeSuccess:
			stats.Success++
			s.recordMetric("success")
		case outcomeSkipped:
			stats.Skipped++
			s.recordMetric("skipped")
		default:
			stats.Failed++
			s.recordMetric("failed")
		}

		if outcome != outcomeSkipped {
			status := models.ReseedFailed
			if outcome == outcomeSuccess {
				status = models.ReseedSuccess
			}
			if _, err := s.history.Record(ctx, models.HistoryEntry{
				InfoHash:   match.SourceHash,
				SourceSite: match.SourceSite,
				TargetSite: match.TargetSite,
				Status:     status,
				Message:    message,
			}); err != nil {
				log.Error().Err(err).Str("hash", match.SourceHash).Msg("failed to record reseed history")
			}
		}

		if i < len(preview.Matches)-1 {
			s.waitBetween(ctx, siteConfigs[match.TargetSite])
		}
	}

	return stats, nil
}

// executeOutcome is internal to Execute: it distinguishes "skipped"
// (already present in the target client, nothing attempted, no history
// row) from the success/failure statuses persisted to history.
type executeOutcome int

const (
	outcomeSuccess executeOutcome = iota
	outcomeFailed
	outcomeSkipped
)

func (s *Service) executeOne(ctx context.Context, req ExecuteRequest, match ReseedMatch, targetClient btclient.Client, siteConfigs map[string]sites.SiteConfig, existing map[string]bool) (executeOutcome, string) {
	if existing[match.TargetHash] {
		return outcomeSkipped, ""
	}

	site, ok := siteConfigs[match.TargetSite]
	if !ok {
		return outcomeFailed, "Site config not found"
	}
	if site.Passkey == "" {
		return outcomeFailed, "No passkey configured"
	}
	if match.TargetID == "" {
		return outcomeFailed, "No torrent ID available"
	}

	template, err := sites.New(site)
	if err != nil {
		return outcomeFailed, fmt.Sprintf("Download failed: %s", err)
	}

	data, err := template.DownloadTorrent(ctx, s.httpClient, match.TargetID)
	if err != nil {
		return outcomeFailed, fmt.Sprintf("Download failed: %s", err)
	}

	_, err = targetClient.AddTorrent(ctx, data, btclient.AddTorrentOptions{
		SavePath:     match.SavePath,
		Paused:       req.AddPaused,
		SkipChecking: req.SkipChecking,
	})
	if err != nil {
		return outcomeFailed, fmt.Sprintf("Add failed: %s", err)
	}

	return outcomeSuccess, ""
}

func (s *Service) waitBetween(ctx context.Context, site sites.SiteConfig) {
	if limiter := s.limiterFor(site); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			log.Debug().Err(err).Str("site", site.ID).Msg("rate limiter wait interrupted")
		}
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.defaultRequestInterval):
	}
}

func (s *Service) recordMetric(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordReseed(outcome)
	}
}

func existingHashSet(ctx context.Context, client btclient.Client) (map[string]bool, error) {
	torrents, err := client.GetTorrents(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(torrents))
	for _, t := range torrents {
		set[strings.ToLower(t.Hash)] = true
	}
	return set, nil
}
