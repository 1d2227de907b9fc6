// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package sites

func intPtr(n int) *int { return &n }

// BuiltinSites returns the first-class site table this project ships
// templates for, backing the /api/sites/available contract endpoint.
// Credentials (Passkey/Authkey/Cookie) are intentionally left empty:
// this is a catalog of known frameworks and rate limits, not a set of
// usable credentials.
func BuiltinSites() []SiteConfig {
	return []SiteConfig{
		{ID: "mteam", Name: "M-Team", BaseURL: "https://kp.m-team.cc", TemplateType: NexusPHP,
			TrackerDomains: []string{"m-team.cc", "kp.m-team.cc", "pt.m-team.cc"}, RateLimitRPM: intPtr(10)},
		{ID: "hdsky", Name: "HDSky", BaseURL: "https://hdsky.me", TemplateType: NexusPHP,
			TrackerDomains: []string{"hdsky.me"}, RateLimitRPM: intPtr(10)},
		{ID: "ourbits", Name: "OurBits", BaseURL: "https://ourbits.club", TemplateType: NexusPHP,
			TrackerDomains: []string{"ourbits.club"}, RateLimitRPM: intPtr(10)},
		{ID: "pterclub", Name: "PTerClub", BaseURL: "https://pterclub.com", TemplateType: NexusPHP,
			TrackerDomains: []string{"pterclub.com"}, RateLimitRPM: intPtr(10)},
		{ID: "hdhome", Name: "HDHome", BaseURL: "https://hdhome.org", TemplateType: NexusPHP,
			TrackerDomains: []string{"hdhome.org"}, RateLimitRPM: intPtr(10)},
		{ID: "audiences", Name: "Audiences", BaseURL: "https://audiences.me", TemplateType: NexusPHP,
			TrackerDomains: []string{"audiences.me"}, RateLimitRPM: intPtr(10)},
		{ID: "chdbits", Name: "CHDBits", BaseURL: "https://chdbits.co", TemplateType: NexusPHP,
			TrackerDomains: []string{"chdbits.co"}, RateLimitRPM: intPtr(10)},
		{ID: "ttg", Name: "TTG", BaseURL: "https://totheglory.im", TemplateType: NexusPHP,
			TrackerDomains: []string{"totheglory.im", "t.totheglory.im"}, DownloadPattern: "/dl/{id}/{passkey}",
			RateLimitRPM: intPtr(10)},
		{ID: "blutopia", Name: "Blutopia", BaseURL: "https://blutopia.cc", TemplateType: Unit3D,
			TrackerDomains: []string{"blutopia.cc"}, RateLimitRPM: intPtr(10)},
		{ID: "aither", Name: "Aither", BaseURL: "https://aither.cc", TemplateType: Unit3D,
			TrackerDomains: []string{"aither.cc"}, RateLimitRPM: intPtr(10)},
		{ID: "redacted", Name: "Redacted", BaseURL: "https://redacted.ch", TemplateType: Gazelle,
			TrackerDomains: []string{"redacted.ch", "flacsfor.me"}, RateLimitRPM: intPtr(5)},
		{ID: "orpheus", Name: "Orpheus", BaseURL: "https://orpheus.network", TemplateType: Gazelle,
			TrackerDomains: []string{"orpheus.network"}, RateLimitRPM: intPtr(5)},
	}
}
