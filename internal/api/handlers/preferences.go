// Copyright (c) 2025, the magnetar contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/kinolotto/magnetar/internal/models"
)

// SearchPreferencesHandler manages the user-configured metric weights and
// the automatic-search toggle
type SearchPreferencesHandler struct {
	store *models.SearchPreferenceStore
}

func NewSearchPreferencesHandler(store *models.SearchPreferenceStore) *SearchPreferencesHandler {
	return &SearchPreferencesHandler{store: store}
}

// Routes registers the search preference routes
func (h *SearchPreferencesHandler) Routes(r chi.Router) {
	r.Route("/search-preferences", func(r chi.Router) {
		r.Get("/", h.GetPreferences)
		r.Put("/", h.UpdatePreferences)
	})
}

func (h *SearchPreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.Load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load search preferences")
		RespondError(w, http.StatusInternalServerError, "Failed to load search preferences")
		return
	}
	RespondJSON(w, http.StatusOK, prefs)
}

func (h *SearchPreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.SearchPriorities
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.Save(r.Context(), prefs); err != nil {
		if errors.Is(err, models.ErrInvalidPriorities) {
			RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("Failed to save search preferences")
		RespondError(w, http.StatusInternalServerError, "Failed to save search preferences")
		return
	}

	RespondJSON(w, http.StatusOK, prefs)
}
