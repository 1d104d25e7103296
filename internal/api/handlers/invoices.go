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

type InvoiceHandler struct {
	store *models.InvoiceStore
}

func NewInvoiceHandler(store *models.InvoiceStore) *InvoiceHandler {
	return &InvoiceHandler{store: store}
}

func (h *InvoiceHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpInvoiceRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpInvoiceRead)).Get("/{invoiceID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpInvoiceCreate)).Post("/", h.Create)
}

type InvoicePayload struct {
	ClientID       int64     `json:"clientId" validate:"required,gt=0"`
	SubscriptionID *int64    `json:"subscriptionId"`
	Amount         float64   `json:"amount" validate:"gte=0"`
	Tax            float64   `json:"tax" validate:"gte=0"`
	IssueDate      time.Time `json:"issueDate" validate:"required"`
	DueDate        time.Time `json:"dueDate" validate:"required"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		invoices, err := h.store.ListByClient(ctx, middleware.ClientIDFromContext(ctx))
		if err != nil {
			RespondStoreError(w, err, "list own invoices")
			return
		}
		RespondJSON(w, http.StatusOK, invoices)
		return
	}

	invoices, err := h.store.List(ctx)
	if err != nil {
		RespondStoreError(w, err, "list invoices")
		return
	}
	RespondJSON(w, http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "invoiceID", "invoice ID")
	if !ok {
		return
	}

	ctx := r.Context()
	invoice, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get invoice")
		return
	}

	if !authz.CanAccessClient(middleware.RoleFromContext(ctx), middleware.ClientIDFromContext(ctx), invoice.ClientID) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	RespondJSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload InvoicePayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	invoice, err := h.store.Create(r.Context(), &models.Invoice{
		ClientID:       payload.ClientID,
		SubscriptionID: payload.SubscriptionID,
		Amount:         payload.Amount,
		Tax:            payload.Tax,
		IssueDate:      payload.IssueDate,
		DueDate:        payload.DueDate,
	})
	if err != nil {
		RespondStoreError(w, err, "create invoice")
		return
	}
	RespondJSON(w, http.StatusCreated, invoice)
}
