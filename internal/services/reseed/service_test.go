// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package reseed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgraft/graft/internal/btclient"
	"github.com/ptgraft/graft/internal/database"
	"github.com/ptgraft/graft/internal/fingerprint"
	"github.com/ptgraft/graft/internal/models"
	"github.com/ptgraft/graft/internal/sites"
	"github.com/ptgraft/graft/internal/tracker"
)

type fakeClient struct {
	torrents []btclient.TorrentInfo
	trackers map[string][]string
	files    map[string][]btclient.TorrentFile
	added    []btclient.AddTorrentOptions
	addErr   error
}

func (f *fakeClient) ClientType() btclient.ClientType              { return btclient.QBittorrent }
func (f *fakeClient) ClientID() string                             { return "fake" }
func (f *fakeClient) TestConnection(ctx context.Context) error     { return nil }
func (f *fakeClient) GetTorrents(ctx context.Context) ([]btclient.TorrentInfo, error) {
	return f.torrents, nil
}
func (f *fakeClient) GetTorrent(ctx context.Context, hash string) (btclient.TorrentInfo, error) {
	for _, t := range f.torrents {
		if t.Hash == hash {
			return t, nil
		}
	}
	return btclient.TorrentInfo{}, btclient.ErrTorrentNotFound
}
func (f *fakeClient) GetTorrentFiles(ctx context.Context, hash string) ([]btclient.TorrentFile, error) {
	return f.files[hash], nil
}
func (f *fakeClient) GetTorrentTrackers(ctx context.Context, hash string) ([]string, error) {
	return f.trackers[hash], nil
}
func (f *fakeClient) AddTorrent(ctx context.Context, data []byte, opts btclient.AddTorrentOptions) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.added = append(f.added, opts)
	return "newhash", nil
}
func (f *fakeClient) RemoveTorrent(ctx context.Context, hash string, deleteFiles bool) error { return nil }
func (f *fakeClient) PauseTorrent(ctx context.Context, hash string) error                    { return nil }
func (f *fakeClient) ResumeTorrent(ctx context.Context, hash string) error                   { return nil }
func (f *fakeClient) RecheckTorrent(ctx context.Context, hash string) error                  { return nil }

// fakeMatcher returns a fixed, pre-built fingerprint.Matcher regardless
// of the persistent index, so tests can seed cross-site matches directly.
type fakeMatcher struct {
	m *fingerprint.Matcher
}

func (f *fakeMatcher) BuildMatcher(ctx context.Context) (*fingerprint.Matcher, error) {
	return f.m, nil
}

func newTestHistoryStore(t *testing.T) *models.HistoryStore {
	t.Helper()
	dir := t.TempDir()
	db, err := database.New(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return models.NewHistoryStore(db)
}

func TestPreviewFindsCrossSiteMatches(t *testing.T) {
	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "TARGETHASH", SiteID: "hdsky", TorrentID: "555", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	identifier.RegisterSite("tracker.m-team.example", "mteam")

	svc := New(&fakeMatcher{m: matcher}, identifier, newTestHistoryStore(t), 10*time.Millisecond)

	client := &fakeClient{
		torrents: []btclient.TorrentInfo{{Hash: "sourcehash", Name: "t1", Size: 1000}},
		trackers: map[string][]string{"sourcehash": {"https://tracker.m-team.example/announce?id=1"}},
	}

	stats, err := svc.Preview(context.Background(), client, []string{"hdsky"})
	require.NoError(t, err)
	require.Len(t, stats.Matches, 1)
	assert.Equal(t, "hdsky", stats.Matches[0].TargetSite)
	assert.Equal(t, "mteam", stats.Matches[0].SourceSite)
	assert.Equal(t, "targethash", stats.Matches[0].TargetHash)
}

func TestPreviewExcludesSourceSite(t *testing.T) {
	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "aaaa", SiteID: "mteam", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	identifier.RegisterSite("tracker.m-team.example", "mteam")
	svc := New(&fakeMatcher{m: matcher}, identifier, newTestHistoryStore(t), 10*time.Millisecond)

	client := &fakeClient{
		torrents: []btclient.TorrentInfo{{Hash: "bbbb", Name: "t1", Size: 1000}},
		trackers: map[string][]string{"bbbb": {"https://tracker.m-team.example/announce?id=1"}},
	}

	stats, err := svc.Preview(context.Background(), client, []string{"mteam"})
	require.NoError(t, err)
	assert.Empty(t, stats.Matches)
}

func TestExecuteSkipsExistingHash(t *testing.T) {
	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "existinghash", SiteID: "hdsky", TorrentID: "1", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	history := newTestHistoryStore(t)
	svc := New(&fakeMatcher{m: matcher}, identifier, history, time.Millisecond)

	source := &fakeClient{torrents: []btclient.TorrentInfo{{Hash: "sourcehash", Size: 1000}}}
	target := &fakeClient{torrents: []btclient.TorrentInfo{{Hash: "existinghash"}}}

	siteConfigs := map[string]sites.SiteConfig{"hdsky": {ID: "hdsky", Passkey: "pk", TemplateType: sites.NexusPHP, BaseURL: "https://hdsky.example"}}

	stats, err := svc.Execute(context.Background(), ExecuteRequest{TargetSiteIDs: []string{"hdsky"}}, source, target, siteConfigs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Success)
	assert.Equal(t, 0, stats.Failed)

	rows, err := history.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExecuteFailsWithoutPasskey(t *testing.T) {
	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "aaaa", SiteID: "hdsky", TorrentID: "1", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	history := newTestHistoryStore(t)
	svc := New(&fakeMatcher{m: matcher}, identifier, history, time.Millisecond)

	source := &fakeClient{torrents: []btclient.TorrentInfo{{Hash: "sourcehash", Size: 1000}}}
	target := &fakeClient{}

	siteConfigs := map[string]sites.SiteConfig{"hdsky": {ID: "hdsky", TemplateType: sites.NexusPHP, BaseURL: "https://hdsky.example"}}

	stats, err := svc.Execute(context.Background(), ExecuteRequest{TargetSiteIDs: []string{"hdsky"}}, source, target, siteConfigs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)

	rows, err := history.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReseedFailed, rows[0].Status)
	assert.Equal(t, "No passkey configured", rows[0].Message)
}

func TestExecuteFailsWithoutSiteConfig(t *testing.T) {
	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "aaaa", SiteID: "hdsky", TorrentID: "1", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	history := newTestHistoryStore(t)
	svc := New(&fakeMatcher{m: matcher}, identifier, history, time.Millisecond)

	source := &fakeClient{torrents: []btclient.TorrentInfo{{Hash: "sourcehash", Size: 1000}}}
	target := &fakeClient{}

	stats, err := svc.Execute(context.Background(), ExecuteRequest{TargetSiteIDs: []string{"hdsky"}}, source, target, map[string]sites.SiteConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)

	rows, err := history.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Site config not found", rows[0].Message)
}

func TestExecuteSucceedsAndAddsTorrent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("d4:infod6:lengthi1000eee"))
	}))
	defer srv.Close()

	matcher := fingerprint.NewMatcher()
	fp := fingerprint.FromSize(1000, 1, 1000)
	matcher.Add(fingerprint.Entry{InfoHash: "aaaa", SiteID: "hdsky", TorrentID: "1", Fingerprint: fp, Size: 1000})

	identifier := tracker.New()
	history := newTestHistoryStore(t)
	svc := New(&fakeMatcher{m: matcher}, identifier, history, time.Millisecond)

	source := &fakeClient{torrents: []btclient.TorrentInfo{{Hash: "sourcehash", Size: 1000}}}
	target := &fakeClient{}

	siteConfigs := map[string]sites.SiteConfig{
		"hdsky": {ID: "hdsky", Passkey: "pk", TemplateType: sites.NexusPHP, BaseURL: srv.URL},
	}

	stats, err := svc.Execute(context.Background(), ExecuteRequest{TargetSiteIDs: []string{"hdsky"}}, source, target, siteConfigs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Success)
	require.Len(t, target.added, 1)

	rows, err := history.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReseedSuccess, rows[0].Status)
}
