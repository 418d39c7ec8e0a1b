// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

// qualityRankToScore maps quality ranks to weights. Unknown ranks score 0.
var qualityRankToScore = map[int]int{
	0: 3, // 1080p
	1: 2, // 2160p / 4K
	2: 1, // 720p
}

// ScoreQuality converts a quality rank into a scoring weight. Lower ranks
// (better quality) never score below higher ranks.
func ScoreQuality(qualityRank int) int {
	return qualityRankToScore[qualityRank]
}

// ScoreVoice returns a normalized score for the detected voice category:
// full dub scores highest, other localized voiceovers next, everything else
// zero.
func ScoreVoice(voiceRank int) int {
	switch {
	case voiceRank == 0:
		return 2
	case voiceRank > 0:
		return 1
	default:
		return 0
	}
}

// ScoreSize returns a score that prefers smaller payloads. The score is
// non-positive and decreases as size grows; it is only meaningful for
// relative ordering.
func ScoreSize(size int64) int64 {
	if size <= 0 {
		return 0
	}
	return -size
}
