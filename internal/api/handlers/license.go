// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/seedvault/seedvault/internal/services"
)

// LicenseHandler exposes license status over the local API. Activation is
// deliberately not exposed here: it is an interactive, machine-bound flow
// that runs through the CLI gate.
type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{licenseService: licenseService}
}

// RegisterRoutes registers license routes
func (h *LicenseHandler) RegisterRoutes(r chi.Router) {
	r.Route("/license", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/history", h.GetHistory)
	})
}

// GetStatus reports the current validation verdict. An invalid license
// returns only {"valid": false}; the reason is never surfaced.
func (h *LicenseHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.licenseService.Status())
}

// GetHistory lists recent activation attempts from the local audit log.
func (h *LicenseHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			RespondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.licenseService.History(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load activation history")
		RespondError(w, http.StatusInternalServerError, "failed to load activation history")
		return
	}

	RespondJSON(w, http.StatusOK, entries)
}
