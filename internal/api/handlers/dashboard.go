// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

type DashboardHandler struct {
	entitlement *entitlement.Service
}

func NewDashboardHandler(entitlementService *entitlement.Service) *DashboardHandler {
	return &DashboardHandler{entitlement: entitlementService}
}

func (h *DashboardHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpDashboardView)).Get("/stats", h.Stats)
}

// Stats serves the dashboard aggregates. Individual figures degrade to zero
// on backend failure; the endpoint itself only fails on a dead context.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.entitlement.DashboardStats(r.Context(), time.Now().UTC())
	if err != nil {
		RespondStoreError(w, err, "dashboard stats")
		return
	}
	RespondJSON(w, http.StatusOK, stats)
}
