// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/api/authz"
)

// RequireOperation gates a route group on the role policy. Denials carry no
// detail beyond the status.
func RequireOperation(op authz.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if !authz.Allowed(role, op) {
				log.Debug().
					Str("role", string(role)).
					Str("operation", string(op)).
					Str("path", r.URL.Path).
					Msg("operation denied")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
