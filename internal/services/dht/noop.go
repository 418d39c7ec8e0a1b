// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package dht

import (
	"context"

	"github.com/kinolotto/magnetar/internal/services/magnet"
)

// NoopSession satisfies the peer-search interface when DHT fallback is
// disabled in configuration.
type NoopSession struct{}

func (NoopSession) Search(_ context.Context, _ string) []magnet.RawCandidate {
	return nil
}
