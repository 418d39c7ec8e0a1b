// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import "strings"

// Voice rank values: 0 means a full dub, positive means some other localized
// voiceover, negative means no localized audio was detected (or it was
// explicitly ruled out).
const (
	DefaultVoiceRank   = -1
	DefaultQualityRank = 5
)

var fullDubKeywords = []string{
	"полный дубляж",
	"полное дублирование",
	"full dub",
	"full dubbing",
	"professional dubbing",
}

var localizedVoiceKeywords = []string{
	"профессионал",
	"многоголос",
	"двуголос",
	"двухголос",
	"одноголос",
	"закадров",
	"русск",
	"озвуч",
	"локализ",
	"voiceover",
	"russian",
	"dub",
}

var noLocalizedVoiceKeywords = []string{
	"без перевода",
	"оригинал",
	"original audio",
	"no voice",
	"no voiceover",
	"no translation",
}

// qualityKeywords are evaluated in order; the first matching group wins.
// Rank 0 is the best tier (1080p), 5 means the quality could not be
// determined.
var qualityKeywords = []struct {
	rank     int
	keywords []string
}{
	{0, []string{"1080p", "1080"}},
	{1, []string{"2160p", "2160", "4k"}},
	{2, []string{"720p", "720"}},
	{3, []string{"480p", "480"}},
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// Classify derives a voice rank and a quality rank from a release name.
// Matching is case-insensitive. Explicit "no localized voice" markers
// override any simultaneous dub keyword match. Blank input yields the
// defaults without attempting any match.
func Classify(name string) (voiceRank, qualityRank int) {
	normalized := strings.ToLower(name)
	if strings.TrimSpace(normalized) == "" {
		return DefaultVoiceRank, DefaultQualityRank
	}

	switch {
	case containsAny(normalized, noLocalizedVoiceKeywords):
		voiceRank = -1
	case containsAny(normalized, fullDubKeywords):
		voiceRank = 0
	case containsAny(normalized, localizedVoiceKeywords):
		voiceRank = 1
	default:
		voiceRank = DefaultVoiceRank
	}

	qualityRank = DefaultQualityRank
	for _, group := range qualityKeywords {
		if containsAny(normalized, group.keywords) {
			qualityRank = group.rank
			break
		}
	}

	return voiceRank, qualityRank
}
