// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ptgraft/graft/internal/fingerprint"
)

func TestFingerprintStoreGetOrCreateDeduplicates(t *testing.T) {
	db := newTestDB(t)
	store := NewFingerprintStore(db)

	fp := fingerprint.FromSize(1000, 2, 600)

	id1, err := store.GetOrCreate(context.Background(), fp)
	require.NoError(t, err)

	id2, err := store.GetOrCreate(context.Background(), fp)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestFingerprintStoreDedupesAcrossFilesHashPresence(t *testing.T) {
	db := newTestDB(t)
	store := NewFingerprintStore(db)

	withHash := fingerprint.FromFiles([]fingerprint.File{{Name: "a", Size: 500}, {Name: "b", Size: 500}})
	withoutHash := fingerprint.FromSize(1000, 2, 500)

	id1, err := store.GetOrCreate(context.Background(), withoutHash)
	require.NoError(t, err)
	id2, err := store.GetOrCreate(context.Background(), withHash)
	require.NoError(t, err)

	// files_hash is stored but never part of the dedup key: a later
	// insert carrying a files_hash fills it in on the existing row
	// rather than creating a second one.
	assert.Equal(t, id1, id2)

	stored, err := store.Get(context.Background(), id1)
	require.NoError(t, err)
	assert.Equal(t, withHash.FilesHash, stored.FilesHash)
}

func TestFingerprintStoreByTotalSize(t *testing.T) {
	db := newTestDB(t)
	store := NewFingerprintStore(db)

	fp1 := fingerprint.FromSize(1000, 1, 1000)
	fp2 := fingerprint.FromSize(1000, 2, 600)
	fp3 := fingerprint.FromSize(2000, 1, 2000)

	id1, err := store.GetOrCreate(context.Background(), fp1)
	require.NoError(t, err)
	id2, err := store.GetOrCreate(context.Background(), fp2)
	require.NoError(t, err)
	_, err = store.GetOrCreate(context.Background(), fp3)
	require.NoError(t, err)

	byTotalSize, err := store.ByTotalSize(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, byTotalSize, 2)
	assert.Contains(t, byTotalSize, id1)
	assert.Contains(t, byTotalSize, id2)
}
