// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes the Prometheus instrumentation for magnet
// resolution and the background search queue.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	// ResolutionsTotal counts finished magnet resolutions by outcome:
	// "found", "not_found" or "error".
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "magnetar_resolutions_total",
		Help: "Magnet resolutions by outcome",
	}, []string{"outcome"})

	// DHTFallbackTotal counts resolutions that escalated to the DHT because
	// no HTTP candidate satisfied the quality and voice gate.
	DHTFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "magnetar_dht_fallback_total",
		Help: "Resolutions that fell back to DHT peer search",
	})

	// SearchTasksInFlight tracks background search tasks currently queued
	// or running.
	SearchTasksInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "magnetar_search_tasks_in_flight",
		Help: "Background search tasks queued or running",
	})

	// TrackerRequestDuration observes aggregator round-trip latency.
	TrackerRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "magnetar_tracker_request_duration_seconds",
		Help:    "Tracker aggregator request latency",
		Buckets: prometheus.DefBuckets,
	})
)

// Server serves the Prometheus scrape endpoint on its own listener.
type Server struct {
	srv *http.Server
}

func NewServer(host string, port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.srv.Addr).Msg("Metrics server starting")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
