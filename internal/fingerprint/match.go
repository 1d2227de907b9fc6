// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package fingerprint

// MatchResult grades how confidently two fingerprints describe the same
// payload. Ordering is significant: higher values sort first when
// Matcher ranks candidates.
type MatchResult int

const (
	NoMatch MatchResult = iota
	LowConfidence
	MediumConfidence
	HighConfidence
	ExactMatch
)

// Score maps a MatchResult to the confidence score carried on ReseedMatch.
func (r MatchResult) Score() float64 {
	switch r {
	case ExactMatch:
		return 1.0
	case HighConfidence:
		return 0.9
	case MediumConfidence:
		return 0.7
	case LowConfidence:
		return 0.3
	default:
		return 0.0
	}
}

// Usable reports whether a result is strong enough to propose as a reseed
// candidate. LowConfidence is deliberately excluded: it is visible to
// internal queries but never returned by Matcher.FindMatches.
func (r MatchResult) Usable() bool {
	return r == MediumConfidence || r == HighConfidence || r == ExactMatch
}

// Matches compares two fingerprints and returns the confidence grade.
// The relation is total and symmetric in a and b. When either side has
// no FilesHash the result is at most HighConfidence, even if the two
// are in fact identical, since there is no file list to compare.
func Matches(a, b ContentFingerprint) MatchResult {
	if a.TotalSize != b.TotalSize {
		return NoMatch
	}

	if a.FilesHash != "" && b.FilesHash != "" {
		if a.FilesHash == b.FilesHash {
			return ExactMatch
		}
		return NoMatch
	}

	if a.LargestFileSize != b.LargestFileSize {
		return LowConfidence
	}

	delta := int(a.FileCount) - int(b.FileCount)
	if delta < 0 {
		delta = -delta
	}

	switch {
	case delta > 2:
		return LowConfidence
	case delta == 0:
		return HighConfidence
	default:
		return MediumConfidence
	}
}
