// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kinolotto/magnetar/internal/dbinterface"
)

// ErrInvalidPriorities is returned by Save when a priority is negative.
var ErrInvalidPriorities = errors.New("priorities must be non-negative")

// SearchPriorities holds the user-configurable weighting for candidate
// selection. All-zero priorities disable preference weighting and selection
// falls back to seeders and the fixed tie-break order.
type SearchPriorities struct {
	QualityPriority   int  `json:"quality_priority"`
	VoicePriority     int  `json:"voice_priority"`
	SizePriority      int  `json:"size_priority"`
	AutoSearchEnabled bool `json:"auto_search_enabled"`
}

// DefaultSearchPriorities are the safe defaults used when no row exists or
// the store is unavailable.
func DefaultSearchPriorities() SearchPriorities {
	return SearchPriorities{AutoSearchEnabled: true}
}

// SearchPreferenceStore persists the single search preference row.
type SearchPreferenceStore struct {
	db dbinterface.Querier
}

// NewSearchPreferenceStore constructs a new search preference store.
func NewSearchPreferenceStore(db dbinterface.Querier) *SearchPreferenceStore {
	return &SearchPreferenceStore{db: db}
}

// Load returns the configured priorities, falling back to defaults when no
// row has been written yet.
func (s *SearchPreferenceStore) Load(ctx context.Context) (SearchPriorities, error) {
	const query = `
		SELECT quality_priority, voice_priority, size_priority, auto_search_enabled
		FROM search_preferences
		WHERE id = 1
	`

	prefs := DefaultSearchPriorities()
	err := s.db.QueryRowContext(ctx, query).Scan(
		&prefs.QualityPriority,
		&prefs.VoicePriority,
		&prefs.SizePriority,
		&prefs.AutoSearchEnabled,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultSearchPriorities(), nil
		}
		return DefaultSearchPriorities(), fmt.Errorf("load search preferences: %w", err)
	}

	if prefs.QualityPriority < 0 {
		prefs.QualityPriority = 0
	}
	if prefs.VoicePriority < 0 {
		prefs.VoicePriority = 0
	}
	if prefs.SizePriority < 0 {
		prefs.SizePriority = 0
	}

	return prefs, nil
}

// Save upserts the preference row.
func (s *SearchPreferenceStore) Save(ctx context.Context, prefs SearchPriorities) error {
	if prefs.QualityPriority < 0 || prefs.VoicePriority < 0 || prefs.SizePriority < 0 {
		return ErrInvalidPriorities
	}

	const query = `
		INSERT INTO search_preferences (id, quality_priority, voice_priority, size_priority, auto_search_enabled, updated_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			quality_priority = excluded.quality_priority,
			voice_priority = excluded.voice_priority,
			size_priority = excluded.size_priority,
			auto_search_enabled = excluded.auto_search_enabled,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := s.db.ExecContext(ctx, query,
		prefs.QualityPriority,
		prefs.VoicePriority,
		prefs.SizePriority,
		prefs.AutoSearchEnabled,
	); err != nil {
		return fmt.Errorf("save search preferences: %w", err)
	}

	return nil
}
