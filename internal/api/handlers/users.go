// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/api/authz"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/domain"
)

type UserHandler struct {
	authService *auth.Service
}

func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequireOperation(authz.OpUserManage)).Post("/", h.Create)
}

type UserPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload UserPayload
	if !DecodeJSON(w, r, &payload) {
		return
	}
	if err := validate.Struct(&payload); err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	role, err := domain.ParseRole(payload.Role)
	if err != nil {
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.authService.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password, role)
	if err != nil {
		RespondStoreError(w, err, "create user")
		return
	}
	RespondJSON(w, http.StatusCreated, user)
}
