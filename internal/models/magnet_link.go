// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kinolotto/magnetar/internal/dbinterface"
)

// ErrMagnetLinkNotFound is returned when no link is stored for a movie.
var ErrMagnetLinkNotFound = errors.New("magnet link not found")

// MagnetLink is a resolved magnet URI persisted for a movie.
type MagnetLink struct {
	MovieID    int64
	MagnetLink string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MagnetLinkStore persists resolved magnet links keyed by movie ID.
type MagnetLinkStore struct {
	db dbinterface.Querier
}

// NewMagnetLinkStore constructs a new magnet link store.
func NewMagnetLinkStore(db dbinterface.Querier) *MagnetLinkStore {
	return &MagnetLinkStore{db: db}
}

// Get returns the stored link for a movie, or ErrMagnetLinkNotFound.
func (s *MagnetLinkStore) Get(ctx context.Context, movieID int64) (*MagnetLink, error) {
	const query = `
		SELECT movie_id, magnet_link, created_at, updated_at
		FROM magnet_links
		WHERE movie_id = ?
	`

	var link MagnetLink
	err := s.db.QueryRowContext(ctx, query, movieID).Scan(
		&link.MovieID,
		&link.MagnetLink,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMagnetLinkNotFound
		}
		return nil, fmt.Errorf("get magnet link: %w", err)
	}

	return &link, nil
}

// Store inserts or replaces the link for a movie.
func (s *MagnetLinkStore) Store(ctx context.Context, movieID int64, magnetLink string) error {
	if strings.TrimSpace(magnetLink) == "" {
		return fmt.Errorf("magnet link cannot be empty")
	}

	const query = `
		INSERT INTO magnet_links (movie_id, magnet_link, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (movie_id) DO UPDATE SET
			magnet_link = excluded.magnet_link,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query, movieID, magnetLink); err != nil {
		return fmt.Errorf("store magnet link: %w", err)
	}

	return nil
}

// Delete removes the stored link for a movie. Deleting a missing row is not
// an error.
func (s *MagnetLinkStore) Delete(ctx context.Context, movieID int64) error {
	const query = `DELETE FROM magnet_links WHERE movie_id = ?`

	if _, err := s.db.ExecContext(ctx, query, movieID); err != nil {
		return fmt.Errorf("delete magnet link: %w", err)
	}

	return nil
}
