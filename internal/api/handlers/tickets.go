// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

type TicketHandler struct {
	store *models.TicketStore
}

func NewTicketHandler(store *models.TicketStore) *TicketHandler {
	return &TicketHandler{store: store}
}

func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpTicketRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpTicketRead)).Get("/{ticketID}", h.Get)
	r.With(middleware.RequireOperation(authz.OpTicketCreate)).Post("/", h.Create)
	r.With(middleware.RequireOperation(authz.OpTicketManage)).Post("/{ticketID}/assign", h.Assign)
	r.With(middleware.RequireOperation(authz.OpTicketManage)).Post("/{ticketID}/resolve", h.Resolve)
}

type TicketPayload struct {
	ClientID int64  `json:"clientId"`
	Subject  string `json:"subject" validate:"required"`
	Body     string `json:"body"`
}

type TicketAssignPayload struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		tickets []*models.Ticket
		err     error
	)
	switch middleware.RoleFromContext(ctx) {
	case domain.RoleClient:
		tickets, err = h.store.ListByClient(ctx, middleware.ClientIDFromContext(ctx))
	case domain.RoleSupport:
		// Support sees its own queue plus unassigned tickets.
		tickets, err = h.store.ListForSupport(ctx, middleware.UserIDFromContext(ctx))
	default:
		tickets, err = h.store.List(ctx)
	}
	if err != nil {
		RespondStoreError(w, err, "list tickets")
		return
	}
	RespondJSON(w, http.StatusOK, tickets)
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "ticketID", "ticket ID")
	if !ok {
		return
	}

	ctx := r.Context()
	ticket, err := h.store.Get(ctx, id)
	if err != nil {
		RespondStoreError(w, err, "get ticket")
		return
	}

	role := middleware.RoleFromContext(ctx)
	if !authz.CanAccessClient(role, middleware.ClientIDFromContext(ctx), ticket.ClientID) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}
	if role == domain.RoleSupport && ticket.AssignedTo != nil && *ticket.AssignedTo != middleware.UserIDFromContext(ctx) {
		RespondError(w, http.StatusForbidden, "Forbidden")
		return
	}

	RespondJSON(w, http.StatusOK, ticket)
}

func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload TicketPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	clientID := payload.ClientID
	// Client accounts always file under their own profile.
	if middleware.RoleFromContext(ctx) == domain.RoleClient {
		clientID = middleware.ClientIDFromContext(ctx)
	}
	if clientID == 0 {
		RespondError(w, http.StatusBadRequest, "clientId is required")
		return
	}

	ticket, err := h.store.Create(ctx, &models.Ticket{
		ClientID: clientID,
		Subject:  payload.Subject,
		Body:     payload.Body,
	})
	if err != nil {
		RespondStoreError(w, err, "create ticket")
		return
	}
	RespondJSON(w, http.StatusCreated, ticket)
}

func (h *TicketHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "ticketID", "ticket ID")
	if !ok {
		return
	}

	var payload TicketAssignPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Assign(r.Context(), id, payload.UserID); err != nil {
		RespondStoreError(w, err, "assign ticket")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Ticket assigned"})
}

func (h *TicketHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "ticketID", "ticket ID")
	if !ok {
		return
	}

	ticket, err := h.store.Resolve(r.Context(), id)
	if err != nil {
		RespondStoreError(w, err, "resolve ticket")
		return
	}
	RespondJSON(w, http.StatusOK, ticket)
}
