// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package search coordinates background magnet resolution: a bounded worker
// pool, single-flight deduplication per movie, and status reporting backed
// by the persistent link store.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kinolotto/magnetar/internal/metrics"
	"github.com/kinolotto/magnetar/internal/models"
)

// Status describes the lifecycle of a search task.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusNotFound  Status = "not_found"
	StatusFailed    Status = "failed"
)

// Outcome is the JSON shape returned for both start and status requests.
type Outcome struct {
	Status     Status `json:"status"`
	MovieID    int64  `json:"movie_id"`
	HasMagnet  bool   `json:"has_magnet"`
	MagnetLink string `json:"magnet_link"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
}

// Resolver resolves a title to a magnet URI, "" when nothing qualifies.
type Resolver interface {
	Resolve(ctx context.Context, title string) (string, error)
}

// LinkStore persists resolved magnet links per movie.
type LinkStore interface {
	Get(ctx context.Context, movieID int64) (*models.MagnetLink, error)
	Store(ctx context.Context, movieID int64, magnetLink string) error
}

// AutoSearchGate reports whether automatic searches are currently enabled.
type AutoSearchGate func(ctx context.Context) bool

type job struct {
	movieID int64
	query   string
	entry   *task
}

type task struct {
	done   chan struct{}
	result *Outcome
}

// Manager owns the worker pool and the in-memory task table. One task per
// movie can be in flight; repeated starts return the running state instead
// of queueing duplicates unless forced.
type Manager struct {
	resolver   Resolver
	links      LinkStore
	autoSearch AutoSearchGate

	ctx    context.Context
	cancel context.CancelFunc
	jobs   chan job
	wg     sync.WaitGroup

	mu    sync.Mutex
	tasks map[int64]*task
}

func NewManager(resolver Resolver, links LinkStore, autoSearch AutoSearchGate, workers int) *Manager {
	if workers <= 0 {
		workers = 3
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		resolver:   resolver,
		links:      links,
		autoSearch: autoSearch,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(chan job, 1024),
		tasks:      make(map[int64]*task),
	}

	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (m *Manager) Close() {
	m.cancel()
	close(m.jobs)
	m.wg.Wait()
}

// Start queues a background search for the movie. A blank query fails
// immediately, a stored link short-circuits to completed, and an already
// running task is reported as such. Force bypasses both the stored link and
// the running check.
func (m *Manager) Start(ctx context.Context, movieID int64, query string, force bool) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{
			Status:  StatusFailed,
			MovieID: movieID,
			Message: "Search query is empty.",
		}
	}

	if !force {
		if link, err := m.links.Get(ctx, movieID); err == nil && link.MagnetLink != "" {
			return Outcome{
				Status:     StatusCompleted,
				MovieID:    movieID,
				HasMagnet:  true,
				MagnetLink: link.MagnetLink,
				Message:    "Magnet link already saved.",
			}
		}
	}

	m.mu.Lock()
	if existing, ok := m.tasks[movieID]; ok && !force {
		select {
		case <-existing.done:
		default:
			m.mu.Unlock()
			return Outcome{
				Status:  StatusRunning,
				MovieID: movieID,
				Message: "Search is already running.",
			}
		}
	}
	entry := &task{done: make(chan struct{})}
	m.tasks[movieID] = entry
	m.mu.Unlock()

	metrics.SearchTasksInFlight.Inc()
	m.jobs <- job{movieID: movieID, query: query, entry: entry}

	return Outcome{
		Status:  StatusQueued,
		MovieID: movieID,
		Message: "Magnet search queued.",
	}
}

// StartAuto queues a search only when the automatic-search preference is
// enabled. It never forces a re-run.
func (m *Manager) StartAuto(ctx context.Context, movieID int64, query string) Outcome {
	if m.autoSearch != nil && !m.autoSearch(ctx) {
		return Outcome{
			Status:  StatusIdle,
			MovieID: movieID,
			Message: "Automatic search is disabled.",
		}
	}
	return m.Start(ctx, movieID, query, false)
}

// Status reports the current state for the movie. In-memory task state wins;
// otherwise a persisted link reports completed, and no record at all is idle.
func (m *Manager) Status(ctx context.Context, movieID int64) Outcome {
	m.mu.Lock()
	entry, ok := m.tasks[movieID]
	m.mu.Unlock()

	if ok {
		select {
		case <-entry.done:
			m.mu.Lock()
			result := entry.result
			m.mu.Unlock()
			if result != nil {
				return *result
			}
		default:
			return Outcome{
				Status:  StatusRunning,
				MovieID: movieID,
				Message: "Search is running.",
			}
		}
	}

	if link, err := m.links.Get(ctx, movieID); err == nil && link.MagnetLink != "" {
		return Outcome{
			Status:     StatusCompleted,
			MovieID:    movieID,
			HasMagnet:  true,
			MagnetLink: link.MagnetLink,
			Message:    "Magnet link saved.",
		}
	}

	return Outcome{
		Status:  StatusIdle,
		MovieID: movieID,
		Message: "Magnet search has not been started.",
	}
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for j := range m.jobs {
		outcome := m.runSearch(j.movieID, j.query)

		// Each job publishes to the task registered when it was queued. A
		// forced re-run replaces the map entry, so a superseded run only
		// reaches its own, no longer visible, task.
		m.mu.Lock()
		j.entry.result = &outcome
		close(j.entry.done)
		m.mu.Unlock()

		metrics.SearchTasksInFlight.Dec()
	}
}

func (m *Manager) runSearch(movieID int64, query string) Outcome {
	magnetLink, err := m.resolver.Resolve(m.ctx, query)
	if err != nil {
		log.Error().Err(err).Int64("movieID", movieID).Str("query", query).Msg("Magnet search failed")
		metrics.ResolutionsTotal.WithLabelValues("error").Inc()
		return Outcome{
			Status:  StatusFailed,
			MovieID: movieID,
			Message: fmt.Sprintf("Magnet search failed: %v", err),
			Error:   err.Error(),
		}
	}

	if magnetLink == "" {
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		return Outcome{
			Status:  StatusNotFound,
			MovieID: movieID,
			Message: "No suitable magnet link found.",
		}
	}

	// A resolved link is reported as completed even if persisting it fails:
	// the result is real, only the cache write is degraded.
	if err := m.links.Store(m.ctx, movieID, magnetLink); err != nil {
		log.Warn().Err(err).Int64("movieID", movieID).Msg("Failed to persist magnet link")
	}

	metrics.ResolutionsTotal.WithLabelValues("found").Inc()
	return Outcome{
		Status:     StatusCompleted,
		MovieID:    movieID,
		HasMagnet:  true,
		MagnetLink: magnetLink,
		Message:    "Magnet link found.",
	}
}
