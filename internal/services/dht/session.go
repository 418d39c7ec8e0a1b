// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dht implements best-effort peer-to-peer torrent discovery. Every
// lookup runs inside an ephemeral client that is torn down before returning,
// and no failure ever escapes the Search boundary.
package dht

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	anacrolixdht "github.com/anacrolix/dht/v2"
	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/kinolotto/magnetar/internal/services/magnet"
)

// bootstrapRouters are the well-known entry points used instead of the
// library defaults so lookups behave identically across deployments.
var bootstrapRouters = []string{
	"router.bittorrent.com:6881",
	"router.utorrent.com:6881",
	"dht.transmissionbt.com:6881",
}

const maxMetadataFetches = 20

// Session performs DHT lookups bounded by a fixed wall-clock timeout.
type Session struct {
	timeout time.Duration
}

func NewSession(timeoutSeconds int) *Session {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	return &Session{timeout: time.Duration(timeoutSeconds) * time.Second}
}

// Search looks up peers for a fingerprint derived from the query and
// enriches every discovered fingerprint with metadata when a peer will serve
// it. Internal failures are logged and yield an empty slice.
func (s *Session) Search(ctx context.Context, query string) []magnet.RawCandidate {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	client, err := newEphemeralClient()
	if err != nil {
		log.Error().Err(err).Msg("Failed to start DHT session")
		return nil
	}
	defer client.Close()

	target := sha1.Sum([]byte(query))
	peerCounts := s.collectPeers(ctx, client, target)

	candidates := make(map[string]magnet.RawCandidate, len(peerCounts))
	for hash, seeders := range peerCounts {
		candidates[hash] = magnet.RawCandidate{
			Name:     query,
			InfoHash: hash,
			Seeders:  seeders,
		}
	}

	s.fetchMetadata(ctx, client, candidates)

	results := make([]magnet.RawCandidate, 0, len(candidates))
	for hash, candidate := range candidates {
		normalized, ok := normalizeFingerprint(hash)
		if !ok || candidate.Name == "" {
			continue
		}
		candidate.InfoHash = normalized
		results = append(results, candidate)
	}

	log.Debug().Str("query", query).Int("results", len(results)).Msg("DHT lookup finished")
	return results
}

// newEphemeralClient builds a torrent client stripped down to wide-area DHT
// discovery: no trackers, no PEX, no uploads, no port mapping.
func newEphemeralClient() (*torrent.Client, error) {
	cfg := torrent.NewDefaultClientConfig()
	cfg.DisableTrackers = true
	cfg.DisablePEX = true
	cfg.NoUpload = true
	cfg.NoDefaultPortForwarding = true
	cfg.ListenPort = 0
	cfg.DhtStartingNodes = func(network string) anacrolixdht.StartingNodesGetter {
		return func() ([]anacrolixdht.Addr, error) {
			addrs := make([]anacrolixdht.Addr, 0, len(bootstrapRouters))
			for _, router := range bootstrapRouters {
				udpAddr, err := net.ResolveUDPAddr(network, router)
				if err != nil {
					continue
				}
				addrs = append(addrs, anacrolixdht.NewAddr(udpAddr))
			}
			if len(addrs) == 0 {
				return nil, fmt.Errorf("no bootstrap routers resolved for %s", network)
			}
			return addrs, nil
		}
	}

	client, err := torrent.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create torrent client: %w", err)
	}
	return client, nil
}

// collectPeers runs a get-peers traversal for the target on every DHT server
// and records the highest peer count seen per fingerprint. It drains
// traversal replies until the deadline or until every traversal completes.
func (s *Session) collectPeers(ctx context.Context, client *torrent.Client, target [20]byte) map[string]int {
	counts := make(map[string]int)
	targetHex := fmt.Sprintf("%x", target)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, server := range client.DhtServers() {
		announce, err := server.Announce(target, 0, true)
		if err != nil {
			log.Debug().Err(err).Msg("DHT announce failed")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer announce.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case peers, ok := <-announce.Peers():
					if !ok {
						return
					}
					mu.Lock()
					if len(peers.Peers) > counts[targetHex] {
						counts[targetHex] = len(peers.Peers)
					}
					mu.Unlock()
				}
			}
		}()
	}

	wg.Wait()
	return counts
}

// fetchMetadata tries to resolve a declared name and live seeder count for
// every discovered fingerprint, with at most maxMetadataFetches transfers in
// flight. Fingerprints whose metadata never arrives keep their peer-reply
// values.
func (s *Session) fetchMetadata(ctx context.Context, client *torrent.Client, candidates map[string]magnet.RawCandidate) {
	sem := semaphore.NewWeighted(maxMetadataFetches)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for hash := range candidates {
		normalized, ok := normalizeFingerprint(hash)
		if !ok {
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(hash, normalized string) {
			defer wg.Done()
			defer sem.Release(1)

			var infoHash metainfo.Hash
			if err := infoHash.FromHexString(normalized); err != nil {
				return
			}

			t, _ := client.AddTorrentInfoHash(infoHash)
			defer t.Drop()

			select {
			case <-ctx.Done():
				return
			case <-t.GotInfo():
			}

			name := t.Name()
			seeders := t.Stats().ConnectedSeeders

			mu.Lock()
			candidate := candidates[hash]
			if name != "" {
				candidate.Name = name
			}
			if seeders > candidate.Seeders {
				candidate.Seeders = seeders
			}
			candidates[hash] = candidate
			mu.Unlock()
		}(hash, normalized)
	}

	wg.Wait()
}

func normalizeFingerprint(value string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) != 40 {
		return "", false
	}
	for _, ch := range normalized {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		default:
			return "", false
		}
	}
	return normalized, true
}
