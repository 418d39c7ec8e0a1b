// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package dht

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFingerprint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"lowercase passthrough", "aa11bb22cc33dd44ee55ff6677889900aabbccdd", "aa11bb22cc33dd44ee55ff6677889900aabbccdd", true},
		{"uppercase is lowered", "AA11BB22CC33DD44EE55FF6677889900AABBCCDD", "aa11bb22cc33dd44ee55ff6677889900aabbccdd", true},
		{"whitespace trimmed", " aa11bb22cc33dd44ee55ff6677889900aabbccdd ", "aa11bb22cc33dd44ee55ff6677889900aabbccdd", true},
		{"wrong length", "aa11bb22", "", false},
		{"non-hex", "gg11bb22cc33dd44ee55ff6677889900aabbccdd", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeFingerprint(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSessionBlankQuery(t *testing.T) {
	s := NewSession(1)
	assert.Nil(t, s.Search(context.Background(), "   "))
}

func TestNoopSession(t *testing.T) {
	assert.Nil(t, NoopSession{}.Search(context.Background(), "anything"))
}
