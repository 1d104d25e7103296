// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

type LicenseHandler struct {
	store       *models.LicenseStore
	entitlement *entitlement.Service
}

func NewLicenseHandler(store *models.LicenseStore, entitlementService *entitlement.Service) *LicenseHandler {
	return &LicenseHandler{
		store:       store,
		entitlement: entitlementService,
	}
}

func (h *LicenseHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpLicenseRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpLicenseRead)).Get("/expiring", h.Expiring)
	r.With(middleware.RequireOperation(authz.OpLicenseRead)).Get("/{licenseID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpLicenseRead)).Post("/validate", h.Validate)
	r.With(middleware.RequireOperation(authz.OpLicenseCreate)).Post("/", h.Create)
	r.With(middleware.RequireOperation(authz.OpLicenseActivate)).Post("/{licenseID}/activate", h.Activate)
	r.With(middleware.RequireOperation(authz.OpLicenseRenew)).Post("/{licenseID}/renew", h.Renew)
	r.With(middleware.RequireOperation(authz.OpLicenseRevoke)).Post("/{licenseID}/revoke", h.Revoke)
}

type LicenseCreatePayload struct {
	SubscriptionID int64     `json:"subscriptionId" validate:"required,gt=0"`
	LicenseKey     string    `json:"licenseKey"`
	ExpirationDate time.Time `json:"expirationDate" validate:"required"`
}

type LicenseValidatePayload struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

func (h *LicenseHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		licenses, err := h.store.ListByClient(ctx, middleware.ClientIDFromContext(ctx))
		if err != nil {
			RespondStoreError(w, err, "list own licenses")
			return
		}
		RespondJSON(w, http.StatusOK, licenses)
		return
	}

	licenses, err := h.store.List(ctx)
	if err != nil {
		RespondStoreError(w, err, "list licenses")
		return
	}
	RespondJSON(w, http.StatusOK, licenses)
}

// Expiring returns the active licenses inside the warning window. Staff only;
// client accounts learn about expiration through their notifications.
func (h *LicenseHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	expiring, err := h.entitlement.ExpiringLicenses(ctx, time.Now().UTC())
	if err != nil {
		RespondStoreError(w, err, "list expiring licenses")
		return
	}
	RespondJSON(w, http.StatusOK, expiring)
}

func (h *LicenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "licenseID", "license ID")
	if !ok {
		return
	}

	ctx := r.Context()
	if !h.authorizeLicenseAccess(w, r, id) {
		return
	}

	license, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get license")
		return
	}
	RespondJSON(w, http.StatusOK, license)
}

// Validate looks a license up by key, stamps last_checked and reports its
// status and expiration.
func (h *LicenseHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var payload LicenseValidatePayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	license, err := h.store.GetByKey(ctx, payload.LicenseKey)
	if err != nil {
		RespondStoreError(w, err, "validate license")
		return
	}

	if !h.authorizeLicenseAccess(w, r, license.ID) {
		return
	}

	if err := h.store.TouchLastChecked(ctx, license.ID, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Int64("licenseId", license.ID).Msg("failed to stamp last_checked")
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"licenseKey":     license.LicenseKey,
		"status":         license.Status,
		"valid":          license.Status == models.LicenseStatusActive,
		"expirationDate": license.ExpirationDate,
	})
}

func (h *LicenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload LicenseCreatePayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	license, err := h.store.Create(r.Context(), payload.SubscriptionID, payload.LicenseKey, payload.ExpirationDate)
	if err != nil {
		RespondStoreError(w, err, "create license")
		return
	}
	RespondJSON(w, http.StatusCreated, license)
}

func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.entitlement.Activate)
}

func (h *LicenseHandler) Renew(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.entitlement.Renew)
}

func (h *LicenseHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.entitlement.Revoke)
}

func (h *LicenseHandler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (*models.License, error)) {
	id, ok := ParseIDParam(w, r, "licenseID", "license ID")
	if !ok {
		return
	}

	license, err := fn(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err, "license transition")
		return
	}
	RespondJSON(w, http.StatusOK, license)
}

// authorizeLicenseAccess enforces ownership for client accounts. A mismatch
// is a bare 403 so the response leaks nothing about the license.
func (h *LicenseHandler) authorizeLicenseAccess(w http.ResponseWriter, r *http.Request, licenseID int64) bool {
	ctx := r.Context()
	role := middleware.RoleFromContext(ctx)
	if role != domain.RoleClient {
		return true
	}

	ownerClientID, err := h.store.OwnerClientID(ctx, licenseID)
	if err != nil {
		if errors.Is(err, models.ErrLicenseNotFound) {
			RespondError(w, http.StatusNotFound, err.Error())
			return false
		}
		RespondStoreError(w, err, "license ownership")
		return false
	}

	if !authz.CanAccessClient(role, middleware.ClientIDFromContext(ctx), ownerClientID) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}
