// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kinolotto/magnetar/internal/services/search"
)

// SearchHandler exposes background magnet search start and status endpoints
type SearchHandler struct {
	manager *search.Manager
}

func NewSearchHandler(manager *search.Manager) *SearchHandler {
	return &SearchHandler{manager: manager}
}

// Routes registers the search routes
func (h *SearchHandler) Routes(r chi.Router) {
	r.Route("/movies/{movieID}/search", func(r chi.Router) {
		r.Post("/", h.StartSearch)
		r.Get("/", h.GetSearchStatus)
	})
}

type startSearchRequest struct {
	Query string `json:"query"`
	Force bool   `json:"force"`
}

// StartSearch queues a background magnet search for the movie. The request
// body carries the query and an optional force flag to bypass a cached link;
// force can also be requested with a ?force=true query parameter.
func (h *SearchHandler) StartSearch(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	var req startSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	force := req.Force
	if v := r.URL.Query().Get("force"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			RespondError(w, http.StatusBadRequest, "Invalid force parameter")
			return
		}
		force = force || parsed
	}

	outcome := h.manager.Start(r.Context(), movieID, req.Query, force)

	status := http.StatusAccepted
	switch outcome.Status {
	case search.StatusCompleted:
		status = http.StatusOK
	case search.StatusFailed:
		status = http.StatusBadRequest
	}
	RespondJSON(w, status, outcome)
}

// GetSearchStatus reports the state of the movie's search task, falling back
// to the persisted link when no task is in memory.
func (h *SearchHandler) GetSearchStatus(w http.ResponseWriter, r *http.Request) {
	movieID, err := parseMovieID(r)
	if err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid movie ID")
		return
	}

	RespondJSON(w, http.StatusOK, h.manager.Status(r.Context(), movieID))
}

func parseMovieID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
}
