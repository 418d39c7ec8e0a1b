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

func setupMagnetLinkDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE magnet_links (
			movie_id INTEGER PRIMARY KEY,
			magnet_link TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	require.NoError(t, err)

	return db
}

func TestMagnetLinkStoreRoundTrip(t *testing.T) {
	store := NewMagnetLinkStore(setupMagnetLinkDB(t))
	ctx := context.Background()

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrMagnetLinkNotFound)

	require.NoError(t, store.Store(ctx, 1, "magnet:?xt=urn:btih:first"))

	link, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.MovieID)
	assert.Equal(t, "magnet:?xt=urn:btih:first", link.MagnetLink)
}

func TestMagnetLinkStoreUpsert(t *testing.T) {
	store := NewMagnetLinkStore(setupMagnetLinkDB(t))
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, 5, "magnet:?xt=urn:btih:old"))
	require.NoError(t, store.Store(ctx, 5, "magnet:?xt=urn:btih:new"))

	link, err := store.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "magnet:?xt=urn:btih:new", link.MagnetLink)
}

func TestMagnetLinkStoreRejectsBlank(t *testing.T) {
	store := NewMagnetLinkStore(setupMagnetLinkDB(t))

	err := store.Store(context.Background(), 1, "   ")
	assert.Error(t, err)
}

func TestMagnetLinkStoreDelete(t *testing.T) {
	store := NewMagnetLinkStore(setupMagnetLinkDB(t))
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, 9, "magnet:?xt=urn:btih:gone"))
	require.NoError(t, store.Delete(ctx, 9))

	_, err := store.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrMagnetLinkNotFound)
}
