// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package fingerprint identifies the same underlying payload across
// trackers without relying on info-hash, which differs per tracker
// whenever the .torrent's info dictionary is altered on upload. A
// ContentFingerprint is a size-and-structure signature; Matcher indexes
// fingerprints by total size for fast cross-site lookups.
package fingerprint

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// File is the minimal per-file shape needed to build a fingerprint.
type File struct {
	Name string
	Size uint64
}

// ContentFingerprint is a value type identifying a payload by size and
// structure rather than by info-hash.
type ContentFingerprint struct {
	TotalSize       uint64
	FileCount       uint
	LargestFileSize uint64
	// FilesHash is a 40-hex-char SHA-1 over the sorted file list, or ""
	// when the fingerprint was built from size alone (FromSize).
	FilesHash string
}

// FromFiles computes a fingerprint from a file listing. Files are sorted
// by name before hashing so the result is independent of listing order.
func FromFiles(files []File) ContentFingerprint {
	fp := ContentFingerprint{FileCount: uint(len(files))}

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	h := sha1.New()
	for _, f := range sorted {
		fp.TotalSize += f.Size
		if f.Size > fp.LargestFileSize {
			fp.LargestFileSize = f.Size
		}

		h.Write([]byte(f.Name))
		var sizeBuf [8]byte
		binary.LittleEndian.PutUint64(sizeBuf[:], f.Size)
		h.Write(sizeBuf[:])
	}

	if len(sorted) > 0 {
		fp.FilesHash = hex.EncodeToString(h.Sum(nil))
	}

	return fp
}

// FromSize builds a fallback fingerprint from torrent-level totals alone,
// used when a client can't or won't return a file listing. FilesHash is
// left empty, which forces the match relation to fall back to the
// largest-file/file-count comparison instead of exact hash equality.
func FromSize(totalSize uint64, fileCount uint, largestFileSize uint64) ContentFingerprint {
	return ContentFingerprint{
		TotalSize:       totalSize,
		FileCount:       fileCount,
		LargestFileSize: largestFileSize,
	}
}
