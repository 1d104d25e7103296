// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/api/ctxkeys"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/domain"
)

// IsAuthenticated requires a live session and copies its identity into the
// request context.
func IsAuthenticated(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessionManager.GetBool(r.Context(), "authenticated") {
				// 403 to avoid Chromium resetting upstream Basic Auth creds
				// behind reverse proxies.
				http.Error(w, "Unauthorized", http.StatusForbidden)
				return
			}

			role, err := domain.ParseRole(sessionManager.GetString(r.Context(), "role"))
			if err != nil {
				log.Warn().Err(err).Msg("session carries unknown role")
				http.Error(w, "Unauthorized", http.StatusForbidden)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ctxkeys.UserID, sessionManager.GetInt64(ctx, "user_id"))
			ctx = context.WithValue(ctx, ctxkeys.Username, sessionManager.GetString(ctx, "username"))
			ctx = context.WithValue(ctx, ctxkeys.Role, role)
			ctx = context.WithValue(ctx, ctxkeys.ClientID, sessionManager.GetInt64(ctx, "client_id"))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSetup blocks everything but the setup endpoints until the first
// admin account exists.
func RequireSetup(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/auth/setup") || strings.HasSuffix(r.URL.Path, "/auth/check-setup") {
				next.ServeHTTP(w, r)
				return
			}

			complete, err := authService.IsSetupComplete(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("failed to check setup status")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !complete {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusPreconditionRequired)
				w.Write([]byte(`{"error":"Initial setup required","setup_required":true}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the authenticated user's ID, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxkeys.UserID).(int64)
	return id
}

// UsernameFromContext returns the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(ctxkeys.Username).(string)
	return username
}

// RoleFromContext returns the authenticated role, or "".
func RoleFromContext(ctx context.Context) domain.Role {
	role, _ := ctx.Value(ctxkeys.Role).(domain.Role)
	return role
}

// ClientIDFromContext returns the client profile ID bound to the session,
// or 0 for staff accounts.
func ClientIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(ctxkeys.ClientID).(int64)
	return id
}
