// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

type AuthHandler struct {
	authService    *auth.Service
	clientStore    *models.ClientStore
	sessionManager *scs.SessionManager
}

func NewAuthHandler(authService *auth.Service, clientStore *models.ClientStore, sessionManager *scs.SessionManager) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		clientStore:    clientStore,
		sessionManager: sessionManager,
	}
}

func (h *AuthHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/setup", h.Setup)
	r.Get("/check-setup", h.CheckSetup)
	r.Post("/login", h.Login)
}

func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.Logout)
	r.Get("/me", h.GetCurrentUser)
	r.Post("/change-password", h.ChangePassword)
}

// SetupRequest represents the initial setup request
type SetupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Setup creates the first admin account and signs it in.
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req SetupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		RespondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.authService.SetupUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAlreadySetup) {
			RespondError(w, http.StatusBadRequest, "Setup already completed")
			return
		}
		log.Error().Err(err).Msg("Failed to create initial user")
		RespondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	if err := h.startSession(r, user, false); err != nil {
		log.Error().Err(err).Msg("Failed to start session")
	}

	RespondJSON(w, http.StatusCreated, map[string]any{
		"message": "Setup completed successfully",
		"user":    sessionUser(user),
	})
}

// CheckSetup reports whether the first account exists yet.
func (h *AuthHandler) CheckSetup(w http.ResponseWriter, r *http.Request) {
	complete, err := h.authService.IsSetupComplete(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to check setup status")
		RespondError(w, http.StatusInternalServerError, "Failed to check setup status")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]bool{"setup_complete": complete})
}

// Login verifies credentials and opens a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, auth.ErrNotSetup):
			RespondError(w, http.StatusPreconditionRequired, "Initial setup required")
		default:
			log.Error().Err(err).Msg("Login failed")
			RespondError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	if err := h.startSession(r, user, req.RememberMe); err != nil {
		log.Error().Err(err).Msg("Failed to start session")
		RespondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    sessionUser(user),
	})
}

// startSession renews the token against fixation and binds the identity,
// including the client profile for client-role accounts.
func (h *AuthHandler) startSession(r *http.Request, user *models.User, rememberMe bool) error {
	if err := h.sessionManager.RenewToken(r.Context()); err != nil {
		return err
	}

	h.sessionManager.Put(r.Context(), "authenticated", true)
	h.sessionManager.Put(r.Context(), "user_id", user.ID)
	h.sessionManager.Put(r.Context(), "username", user.Username)
	h.sessionManager.Put(r.Context(), "role", string(user.Role))
	h.sessionManager.RememberMe(r.Context(), rememberMe)

	if user.Role == domain.RoleClient {
		client, err := h.clientStore.GetByUserID(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, models.ErrClientNotFound) {
				log.Warn().Str("username", user.Username).Msg("client account has no client profile")
				return nil
			}
			return err
		}
		h.sessionManager.Put(r.Context(), "client_id", client.ID)
	}

	return nil
}

// Logout destroys the session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionManager.Destroy(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to destroy session")
		RespondError(w, http.StatusInternalServerError, "Failed to logout")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the session identity.
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]any{
		"id":       middleware.UserIDFromContext(r.Context()),
		"username": middleware.UsernameFromContext(r.Context()),
		"role":     middleware.RoleFromContext(r.Context()),
		"clientId": middleware.ClientIDFromContext(r.Context()),
	})
}

// ChangePassword rotates the session user's password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	userID := middleware.UserIDFromContext(r.Context())
	if err := h.authService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			RespondError(w, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		RespondStoreError(w, err, "change password")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}

func sessionUser(user *models.User) map[string]any {
	return map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	}
}
