// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// RawCandidate is the normalized shape of one search result, regardless of
// which source produced it. Fields may be empty; consumers must tolerate
// partially populated candidates.
type RawCandidate struct {
	Name     string
	InfoHash string
	Magnet   string
	Seeders  int
	Size     int64
}

// ScoredCandidate is a RawCandidate enriched with classification ranks and
// the per-metric scores derived from them.
type ScoredCandidate struct {
	RawCandidate

	VoiceRank    int
	QualityRank  int
	QualityScore int
	VoiceScore   int
	SizeScore    int64
}

// seederKeys, hashKeys and magnetKeys are the accepted field spellings for
// upstream result objects, probed in order. The breadth is deliberate
// tolerance for an uncontrolled aggregator API.
var (
	seederKeys = []string{"seeders", "seeds", "Seeders", "seeders_count", "num_seeders", "seedersCount"}
	hashKeys   = []string{"info_hash", "hash", "infoHash", "torrent_hash"}
	magnetKeys = []string{"magnet", "magnet_link", "magnetLink"}
)

func extractSeeders(item map[string]any) int {
	for _, key := range seederKeys {
		value, ok := item[key]
		if !ok {
			continue
		}
		if n, ok := toInt(value); ok {
			return int(n)
		}
	}
	return 0
}

func extractSize(item map[string]any) int64 {
	if n, ok := toInt(item["size"]); ok {
		return n
	}
	return 0
}

func extractInfoHash(item map[string]any) string {
	for _, key := range hashKeys {
		if value, ok := item[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func extractMagnet(item map[string]any) string {
	for _, key := range magnetKeys {
		if value, ok := item[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// toInt coerces JSON numbers and numeric strings. Unparseable values are
// rejected rather than defaulted so callers can keep probing aliases.
func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// normalizeResult builds a RawCandidate from one upstream result object.
// The query is used as the display name when the result carries none.
func normalizeResult(item map[string]any, query string) RawCandidate {
	name := query
	if v, ok := item["name"].(string); ok && v != "" {
		name = v
	} else if v, ok := item["title"].(string); ok && v != "" {
		name = v
	}

	return RawCandidate{
		Name:     name,
		InfoHash: extractInfoHash(item),
		Magnet:   extractMagnet(item),
		Seeders:  extractSeeders(item),
		Size:     extractSize(item),
	}
}

// Enrich classifies and scores a raw candidate.
func Enrich(raw RawCandidate) ScoredCandidate {
	voiceRank, qualityRank := Classify(raw.Name)
	return ScoredCandidate{
		RawCandidate: raw,
		VoiceRank:    voiceRank,
		QualityRank:  qualityRank,
		QualityScore: ScoreQuality(qualityRank),
		VoiceScore:   ScoreVoice(voiceRank),
		SizeScore:    ScoreSize(raw.Size),
	}
}

// ValidInfoHash trims a candidate fingerprint and reports whether the result
// is exactly 40 hex characters. The original case is preserved.
func ValidInfoHash(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 40 {
		return "", false
	}
	for _, ch := range trimmed {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return "", false
		}
	}
	return trimmed, true
}

// BuildMagnet constructs a magnet URI from an info hash, a display name and
// an ordered tracker announce list. Name and trackers are URL-escaped
// individually; the info hash is embedded verbatim.
func BuildMagnet(infoHash, name string, trackers []string) string {
	var b strings.Builder
	b.WriteString("magnet:?")
	b.WriteString(fmt.Sprintf("xt=urn:btih:%s", infoHash))
	b.WriteString("&dn=")
	b.WriteString(url.QueryEscape(name))
	for _, tracker := range trackers {
		if tracker == "" {
			continue
		}
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(tracker))
	}
	return b.String()
}
