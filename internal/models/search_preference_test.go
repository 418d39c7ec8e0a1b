// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupPreferenceDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE search_preferences (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			quality_priority INTEGER NOT NULL DEFAULT 0,
			voice_priority INTEGER NOT NULL DEFAULT 0,
			size_priority INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			auto_search_enabled BOOLEAN NOT NULL DEFAULT 1
		)
	`)
	require.NoError(t, err)

	return db
}

func TestSearchPreferenceStoreLoadDefaults(t *testing.T) {
	store := NewSearchPreferenceStore(setupPreferenceDB(t))

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchPriorities(), prefs)
	assert.True(t, prefs.AutoSearchEnabled)
}

func TestSearchPreferenceStoreSaveAndLoad(t *testing.T) {
	store := NewSearchPreferenceStore(setupPreferenceDB(t))
	ctx := context.Background()

	want := SearchPriorities{QualityPriority: 3, VoicePriority: 2, SizePriority: 1, AutoSearchEnabled: false}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Saving again replaces the single row.
	want.QualityPriority = 9
	want.AutoSearchEnabled = true
	require.NoError(t, store.Save(ctx, want))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSearchPreferenceStoreRejectsNegative(t *testing.T) {
	store := NewSearchPreferenceStore(setupPreferenceDB(t))

	err := store.Save(context.Background(), SearchPriorities{VoicePriority: -1})
	assert.ErrorIs(t, err, ErrInvalidPriorities)
}

func TestSearchPreferenceStoreClampsStoredNegatives(t *testing.T) {
	db := setupPreferenceDB(t)
	_, err := db.Exec(`INSERT INTO search_preferences (id, quality_priority, voice_priority, size_priority) VALUES (1, -3, 2, -1)`)
	require.NoError(t, err)

	store := NewSearchPreferenceStore(db)
	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, prefs.QualityPriority)
	assert.Equal(t, 2, prefs.VoicePriority)
	assert.Equal(t, 0, prefs.SizePriority)
}
