// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import (
	"sort"
	"strings"
)

// Priorities are the user-configured weights per metric. Zero disables a
// metric entirely; among enabled metrics a larger weight dominates.
type Priorities struct {
	Quality int
	Voice   int
	Size    int
}

type weightedMetric struct {
	weight int
	score  func(ScoredCandidate) int64
}

// metricOrder returns the enabled metrics sorted by descending weight.
// Equal weights keep the fixed quality, voice, size order so the result
// is deterministic for any input.
func metricOrder(p Priorities) []weightedMetric {
	metrics := []weightedMetric{
		{p.Quality, func(c ScoredCandidate) int64 { return int64(c.QualityScore) }},
		{p.Voice, func(c ScoredCandidate) int64 { return int64(c.VoiceScore) }},
		{p.Size, func(c ScoredCandidate) int64 { return c.SizeScore }},
	}

	enabled := make([]weightedMetric, 0, len(metrics))
	for _, m := range metrics {
		if m.weight > 0 {
			enabled = append(enabled, m)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].weight > enabled[j].weight
	})
	return enabled
}

// sortKey flattens one candidate into a comparable vector: the weighted
// metric contributions first, then the fixed tie-breakers. Smaller sorts
// first on every component.
func sortKey(c ScoredCandidate, metrics []weightedMetric) []int64 {
	key := make([]int64, 0, len(metrics)+4)
	for _, m := range metrics {
		key = append(key, -int64(m.weight)*m.score(c))
	}
	key = append(key,
		-int64(c.Seeders),
		-int64(c.VoiceScore),
		int64(c.QualityRank),
		c.Size,
	)
	return key
}

// Order sorts candidates best-first under the given priorities. Ordering is
// fully deterministic: after the weighted metrics and the numeric
// tie-breakers, the lowercased name decides.
func Order(candidates []ScoredCandidate, priorities Priorities) []ScoredCandidate {
	metrics := metricOrder(priorities)

	keys := make([][]int64, len(candidates))
	names := make([]string, len(candidates))
	indices := make([]int, len(candidates))
	for i, c := range candidates {
		keys[i] = sortKey(c, metrics)
		names[i] = strings.ToLower(c.Name)
		indices[i] = i
	}

	sort.SliceStable(indices, func(i, j int) bool {
		a, b := keys[indices[i]], keys[indices[j]]
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return names[indices[i]] < names[indices[j]]
	})

	result := make([]ScoredCandidate, len(candidates))
	for i, idx := range indices {
		result[i] = candidates[idx]
	}
	return result
}
