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

type TransactionHandler struct {
	store *models.TransactionStore
}

func NewTransactionHandler(store *models.TransactionStore) *TransactionHandler {
	return &TransactionHandler{store: store}
}

func (h *TransactionHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpTransactionRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpTransactionRead)).Get("/{transactionID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpTransactionCreate)).Post("/", h.Create)
}

type TransactionPayload struct {
	ClientID        int64     `json:"clientId" validate:"required,gt=0"`
	InvoiceID       *int64    `json:"invoiceId"`
	Amount          float64   `json:"amount" validate:"gte=0"`
	Status          string    `json:"status" validate:"required"`
	TransactionDate time.Time `json:"transactionDate"`
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		txns, err := h.store.ListByClient(ctx, middleware.ClientIDFromContext(ctx))
		if err != nil {
			RespondStoreError(w, err, "list own transactions")
			return
		}
		RespondJSON(w, http.StatusOK, txns)
		return
	}

	txns, err := h.store.List(ctx)
	if err != nil {
		RespondStoreError(w, err, "list transactions")
		return
	}
	RespondJSON(w, http.StatusOK, txns)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "transactionID", "transaction ID")
	if !ok {
		return
	}

	ctx := r.Context()
	txn, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get transaction")
		return
	}

	if !authz.CanAccessClient(middleware.RoleFromContext(ctx), middleware.ClientIDFromContext(ctx), txn.ClientID) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	RespondJSON(w, http.StatusOK, txn)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload TransactionPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	txn, err := h.store.Create(r.Context(), &models.Transaction{
		ClientID:        payload.ClientID,
		InvoiceID:       payload.InvoiceID,
		Amount:          payload.Amount,
		Status:          payload.Status,
		TransactionDate: payload.TransactionDate,
	})
	if err != nil {
		RespondStoreError(w, err, "create transaction")
		return
	}
	RespondJSON(w, http.StatusCreated, txn)
}
