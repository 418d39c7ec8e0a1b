// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kinolotto/magnetar/internal/metrics"
)

// TrackerSearcher runs one HTTP aggregator query.
type TrackerSearcher interface {
	Search(ctx context.Context, query string) ([]RawCandidate, error)
}

// PeerSearcher discovers candidates through the DHT. Implementations must
// never fail the resolution: internal errors are logged and an empty slice
// returned.
type PeerSearcher interface {
	Search(ctx context.Context, query string) []RawCandidate
}

// PrioritiesLoader yields the current user-configured metric weights.
type PrioritiesLoader func(ctx context.Context) (Priorities, error)

// Resolver turns a movie title into the single best magnet URI using the
// HTTP aggregator first and the DHT as a gated fallback.
type Resolver struct {
	tracker        TrackerSearcher
	peers          PeerSearcher
	loadPriorities PrioritiesLoader
	trackers       []string
	dhtFallback    bool
}

func NewResolver(tracker TrackerSearcher, peers PeerSearcher, loadPriorities PrioritiesLoader, trackers []string, dhtFallback bool) *Resolver {
	return &Resolver{
		tracker:        tracker,
		peers:          peers,
		loadPriorities: loadPriorities,
		trackers:       trackers,
		dhtFallback:    dhtFallback,
	}
}

// Resolve returns the best magnet URI for the title, or "" when nothing
// usable was found. A tracker transport or decode failure is returned as an
// error; DHT problems never are.
func (r *Resolver) Resolve(ctx context.Context, title string) (string, error) {
	query := strings.TrimSpace(title)
	if query == "" {
		return "", nil
	}

	start := time.Now()
	raw, err := r.tracker.Search(ctx, query)
	metrics.TrackerRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", err
	}

	candidates := make([]ScoredCandidate, 0, len(raw))
	for _, c := range raw {
		candidates = append(candidates, Enrich(c))
	}

	if r.shouldFallBack(candidates) {
		candidates = append(candidates, r.searchPeers(ctx, query)...)
	}

	if len(candidates) == 0 {
		return "", nil
	}

	priorities := r.priorities(ctx)
	ordered := Order(candidates, priorities)

	magnet := pickWinner(ordered, r.trackers)
	if magnet == "" {
		log.Debug().Str("query", query).Int("candidates", len(ordered)).Msg("No usable candidate after ordering")
	}
	return magnet, nil
}

// shouldFallBack reports whether the DHT escalation gate is open: fallback
// enabled and no HTTP candidate that is both top-quality and recognizably
// voiced.
func (r *Resolver) shouldFallBack(candidates []ScoredCandidate) bool {
	if !r.dhtFallback || r.peers == nil {
		return false
	}
	for _, c := range candidates {
		if c.VoiceRank >= 0 && c.QualityRank == 0 {
			return false
		}
	}
	return true
}

func (r *Resolver) searchPeers(ctx context.Context, query string) []ScoredCandidate {
	metrics.DHTFallbackTotal.Inc()
	log.Debug().Str("query", query).Msg("Falling back to DHT peer search")

	results := r.peers.Search(ctx, query)
	candidates := make([]ScoredCandidate, 0, len(results))
	for _, result := range results {
		if result.Name == "" {
			result.Name = query
		}
		if result.Seeders < 0 {
			result.Seeders = 0
		}
		// DHT discovery never yields a magnet or payload size.
		result.Magnet = ""
		result.Size = 0
		candidates = append(candidates, Enrich(result))
	}
	return candidates
}

func (r *Resolver) priorities(ctx context.Context) Priorities {
	priorities, err := r.loadPriorities(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load search priorities, using defaults")
		return Priorities{}
	}
	return priorities
}

// pickWinner walks the ordered candidates and returns the first usable
// magnet. Placeholder rows from the aggregator are skipped by name, and
// candidates without a magnet need a valid info hash to be reconstructed.
func pickWinner(ordered []ScoredCandidate, trackers []string) string {
	for _, candidate := range ordered {
		if strings.Contains(strings.ToLower(candidate.Name), "no results") {
			continue
		}
		if strings.TrimSpace(candidate.Magnet) != "" {
			return candidate.Magnet
		}
		infoHash, ok := ValidInfoHash(candidate.InfoHash)
		if !ok {
			continue
		}
		return BuildMagnet(infoHash, candidate.Name, trackers)
	}
	return ""
}
