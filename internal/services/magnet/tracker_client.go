// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package magnet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/kinolotto/magnetar/internal/buildinfo"
)

const maxResponseBytes int64 = 8 << 20 // 8 MiB safety limit for aggregator responses

// TransportError represents an HTTP-level failure when querying a tracker
// aggregator. It preserves the status code so callers can distinguish
// rate limiting from hard failures.
type TransportError struct {
	StatusCode int
	URL        string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tracker request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("tracker request to %s returned status %d", e.URL, e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	_, ok := target.(*TransportError)
	return ok
}

// DecodeError represents a response body that could not be interpreted as a
// result list. Retrying the same request will not help.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tracker response from %s could not be decoded: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool {
	_, ok := target.(*DecodeError)
	return ok
}

// TrackerClient queries an HTTP tracker aggregator through a URL template
// with a {query} placeholder and normalizes whatever comes back.
type TrackerClient struct {
	urlTemplate string
	httpClient  *http.Client
	timeout     time.Duration
}

// NewTrackerClient creates a client for the given URL template. The template
// must contain a {query} placeholder; the search term is URL-escaped into it.
func NewTrackerClient(urlTemplate string, timeoutSeconds int) *TrackerClient {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 15
	}
	timeout := time.Duration(timeoutSeconds) * time.Second
	return &TrackerClient{
		urlTemplate: urlTemplate,
		httpClient:  &http.Client{Timeout: timeout},
		timeout:     timeout,
	}
}

// Search runs one aggregator query and returns the normalized candidates.
// An unusable response body yields a DecodeError; connection and status
// failures yield a TransportError after retries are exhausted.
func (c *TrackerClient) Search(ctx context.Context, query string) ([]RawCandidate, error) {
	requestURL := strings.ReplaceAll(c.urlTemplate, "{query}", url.QueryEscape(query))

	var body []byte
	err := retry.Do(
		func() error {
			var fetchErr error
			body, fetchErr = c.fetch(ctx, requestURL)
			return fetchErr
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
	)
	if err != nil {
		return nil, err
	}

	candidates, err := c.decode(body, requestURL, query)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("query", query).
		Int("results", len(candidates)).
		Msg("Tracker search completed")

	return candidates, nil
}

func (c *TrackerClient) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &TransportError{URL: requestURL, Err: err}
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: requestURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &TransportError{StatusCode: resp.StatusCode, URL: requestURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{URL: requestURL, Err: err}
	}
	return body, nil
}

// decode accepts either a bare JSON array of result objects or an envelope
// with a "results" array. Anything else is treated as an empty result set
// unless the payload is not JSON at all.
func (c *TrackerClient) decode(body []byte, requestURL, query string) ([]RawCandidate, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DecodeError{URL: requestURL, Err: err}
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		if results, ok := v["results"].([]any); ok {
			items = results
		}
	}

	candidates := make([]RawCandidate, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		candidates = append(candidates, normalizeResult(obj, query))
	}
	return candidates, nil
}
