// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/models"
)

type NotificationHandler struct {
	store *models.NotificationStore
}

func NewNotificationHandler(store *models.NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpNotificationRead)).Get("/", h.List)
	r.With(middleware.RequireOperation(authz.OpNotificationRead)).Post("/{notificationID}/read", h.MarkRead)
	r.With(middleware.RequireOperation(authz.OpNotificationRead)).Post("/read-all", h.MarkAllRead)
}

// List returns the session user's notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.store.ListByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		RespondStoreError(w, err, "list notifications")
		return
	}
	RespondJSON(w, http.StatusOK, notifications)
}

// MarkRead marks one of the session user's notifications read. The store
// scopes the update to the owner, so another user's notification is a 404.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIDParam(w, r, "notificationID", "notification ID")
	if !ok {
		return
	}

	if err := h.store.MarkRead(r.Context(), id, middleware.UserIDFromContext(r.Context())); err != nil {
		RespondStoreError(w, err, "mark notification read")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "Notification marked read"})
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := h.store.MarkAllRead(r.Context(), middleware.UserIDFromContext(r.Context())); err != nil {
		RespondStoreError(w, err, "mark all notifications read")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": "All notifications marked read"})
}
