// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

type SubscriptionHandler struct {
	store *models.SubscriptionStore
}

func NewSubscriptionHandler(store *models.SubscriptionStore) *SubscriptionHandler {
	return &SubscriptionHandler{store: store}
}

func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpSubscriptionRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpSubscriptionRead)).Get("/{subscriptionID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpSubscriptionCreate)).Post("/", h.Create)
	r.With(middleware.RequireOperation(authz.OpSubscriptionUpdate)).Put("/{subscriptionID}", h.Update)
}

type SubscriptionPayload struct {
	ClientID  int64     `json:"clientId" validate:"required,gt=0"`
	ProductID int64     `json:"productId" validate:"required,gt=0"`
	Type      string    `json:"subscriptionType" validate:"required"`
	StartDate time.Time `json:"startDate" validate:"required"`
	EndDate   time.Time `json:"endDate" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0"`
	AutoRenew bool      `json:"autoRenew"`
}

func (p *SubscriptionPayload) toModel(w http.ResponseWriter, id int64) (*models.Subscription, bool) {
	subType, err := domain.ParseSubscriptionType(p.Type)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	return &models.Subscription{
		ID:        id,
		ClientID:  p.ClientID,
		ProductID: p.ProductID,
		Type:      subType,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Price:     p.Price,
		AutoRenew: p.AutoRenew,
	}, true
}

func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		subs, err := h.store.ListByClient(ctx, middleware.ClientIDFromContext(ctx))
		if err != nil {
			RespondStoreError(w, err, "list own subscriptions")
			return
		}
		RespondJSON(w, http.StatusOK, subs)
		return
	}

	subs, err := h.store.List(ctx)
	if err != nil {
		RespondStoreError(w, err, "list subscriptions")
		return
	}
	RespondJSON(w, http.StatusOK, subs)
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "subscriptionID", "subscription ID")
	if !ok {
		return
	}

	ctx := r.Context()
	sub, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get subscription")
		return
	}

	if !authz.CanAccessClient(middleware.RoleFromContext(ctx), middleware.ClientIDFromContext(ctx), sub.ClientID) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	RespondJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload SubscriptionPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, ok := payload.toModel(w, 0)
	if !ok {
		return
	}

	created, err := h.store.Create(r.Context(), sub)
	if err != nil {
		RespondStoreError(w, err, "create subscription")
		return
	}
	RespondJSON(w, http.StatusCreated, created)
}

func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "subscriptionID", "subscription ID")
	if !ok {
		return
	}

	var payload SubscriptionPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, ok := payload.toModel(w, id)
	if !ok {
		return
	}

	updated, err := h.store.Update(r.Context(), sub)
	if err != nil {
		RespondStoreError(w, err, "update subscription")
		return
	}
	RespondJSON(w, http.StatusOK, updated)
}
