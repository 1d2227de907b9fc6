// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package tracker

// builtinDomains seeds Identifier with the private trackers this project
// ships first-class site templates for (see internal/sites).
var builtinDomains = map[string]string{
	"m-team.cc":        "mteam",
	"kp.m-team.cc":     "mteam",
	"pt.m-team.cc":     "mteam",
	"hdsky.me":         "hdsky",
	"ourbits.club":     "ourbits",
	"pterclub.com":     "pterclub",
	"hdhome.org":       "hdhome",
	"audiences.me":     "audiences",
	"chdbits.co":       "chdbits",
	"totheglory.im":    "ttg",
	"t.totheglory.im":  "ttg",
	"springsunday.net": "ssd",
	"hdarea.club":      "hdarea",
	"hdatmos.club":     "hdatmos",
	"hdfans.org":       "hdfans",
	"hdtime.org":       "hdtime",
	"1ptba.com":        "1ptba",
	"hdzone.me":        "hdzone",
	"pt.hdupt.com":     "hdupt",
	"pt.btschool.club": "btschool",
	"blutopia.cc":      "blutopia",
	"aither.cc":        "aither",
	"reelflix.xyz":     "reelflix",
	"redacted.ch":      "redacted",
	"flacsfor.me":      "redacted",
	"orpheus.network":  "orpheus",
}
