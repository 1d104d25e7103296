// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

// validate is shared by the payload structs across handlers.
var validate = validator.New()

type ClientHandler struct {
	store *models.ClientStore
}

func NewClientHandler(store *models.ClientStore) *ClientHandler {
	return &ClientHandler{store: store}
}

func (h *ClientHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpClientRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpClientRead)).Get("/{clientID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpClientManage)).Post("/", h.Create)
	r.With(middleware.RequireOperation(authz.OpClientManage)).Put("/{clientID}", h.Update)
	r.With(middleware.RequireOperation(authz.OpClientManage)).Delete("/{clientID}", h.Delete)
}

type ClientPayload struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	CompanyName string `json:"companyName" validate:"required"`
	ContactName string `json:"contactName"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

func (p *ClientPayload) toModel(id int64) *models.Client {
	return &models.Client{
		ID:          id,
		UserID:      p.UserID,
		CompanyName: p.CompanyName,
		ContactName: p.ContactName,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
	}
}

func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Client accounts only see their own profile.
	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		callerClientID := middleware.ClientIDFromContext(ctx)
		if callerClientID == 0 {
			RespondJSON(w, http.StatusOK, []*models.Client{})
			return
		}
		client, err := h.store.Get(ctx, callerClientID)
		if err != nil {
			RespondStoreError(w, err, "get own client")
			return
		}
		RespondJSON(w, http.StatusOK, []*models.Client{client})
		return
	}

	clients, err := h.store.List(ctx)
	if err != nil {
		RespondStoreError(w, err, "list clients")
		return
	}
	RespondJSON(w, http.StatusOK, clients)
}

func (h *ClientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "clientID", "client ID")
	if !ok {
		return
	}

	ctx := r.Context()
	if !authz.CanAccessClient(middleware.RoleFromContext(ctx), middleware.ClientIDFromContext(ctx), id) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	client, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get client")
		return
	}
	RespondJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload ClientPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.store.Create(r.Context(), payload.toModel(0))
	if err != nil {
		RespondStoreError(w, err, "create client")
		return
	}
	RespondJSON(w, http.StatusCreated, client)
}

func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "clientID", "client ID")
	if !ok {
		return
	}

	var payload ClientPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.store.Update(r.Context(), payload.toModel(id))
	if err != nil {
		RespondStoreError(w, err, "update client")
		return
	}
	RespondJSON(w, http.StatusOK, client)
}

func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "clientID", "client ID")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		RespondStoreError(w, err, "delete client")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}
