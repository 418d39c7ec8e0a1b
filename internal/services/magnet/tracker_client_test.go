// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerClientSearchBareArray(t *testing.T) {
	var gotPath atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "Movie 1080p", "info_hash": "aa11bb22cc33dd44ee55ff6677889900aabbccdd", "seeders": "12", "size": "700"},
			{"name": "Movie 720p", "seeds": 3}
		]`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/q.php?q={query}", 5)
	candidates, err := client.Search(context.Background(), "some movie")
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "/q.php?q=some+movie", gotPath.Load())
	assert.Equal(t, "Movie 1080p", candidates[0].Name)
	assert.Equal(t, 12, candidates[0].Seeders)
	assert.Equal(t, int64(700), candidates[0].Size)
	assert.Equal(t, 3, candidates[1].Seeders)
}

func TestTrackerClientSearchResultsEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [{"title": "Enveloped Movie", "torrent_hash": "aa11bb22cc33dd44ee55ff6677889900aabbccdd"}]}`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	candidates, err := client.Search(context.Background(), "movie")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Enveloped Movie", candidates[0].Name)
	assert.Equal(t, "aa11bb22cc33dd44ee55ff6677889900aabbccdd", candidates[0].InfoHash)
}

func TestTrackerClientSearchUnexpectedShapeYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	candidates, err := client.Search(context.Background(), "movie")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestTrackerClientSearchNonJSONIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	_, err := client.Search(context.Background(), "movie")
	require.Error(t, err)
	assert.ErrorIs(t, err, &DecodeError{})
}

func TestTrackerClientSearchRetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"name": "Recovered Movie"}]`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	candidates, err := client.Search(context.Background(), "movie")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestTrackerClientSearchExhaustedRetriesIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	_, err := client.Search(context.Background(), "movie")
	require.Error(t, err)
	assert.ErrorIs(t, err, &TransportError{})
}

func TestTrackerClientSearchNonDictItemsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name": "Valid"}, "junk", 42, null]`))
	}))
	defer server.Close()

	client := NewTrackerClient(server.URL+"/?q={query}", 5)
	candidates, err := client.Search(context.Background(), "movie")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Valid", candidates[0].Name)
}
