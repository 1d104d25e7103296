// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Server struct {
	manager        *Manager
	server         *http.Server
	basicAuthUsers map[string]string
}

// NewServer builds the standalone metrics listener. basicAuthUsers is a
// comma-separated list of user:password pairs; malformed entries are skipped.
func NewServer(manager *Manager, host string, port int, basicAuthUsers string) *Server {
	users := parseBasicAuthUsers(basicAuthUsers)

	mux := http.NewServeMux()

	var metricsHandler http.Handler = promhttp.HandlerFor(manager.GetRegistry(), promhttp.HandlerOpts{})
	if len(users) > 0 {
		metricsHandler = BasicAuth("metrics", users)(metricsHandler)
	}
	mux.Handle("/metrics", metricsHandler)

	return &Server{
		manager: manager,
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		basicAuthUsers: users,
	}
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func parseBasicAuthUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		user, pass, ok := strings.Cut(entry, ":")
		if !ok || user == "" || pass == "" {
			log.Warn().Str("entry", entry).Msg("Skipping malformed basic auth entry")
			continue
		}
		users[strings.TrimSpace(user)] = strings.TrimSpace(pass)
	}
	return users
}

// BasicAuth guards a handler with HTTP basic authentication.
func BasicAuth(realm string, users map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if ok {
				expected, found := users[user]
				if found && subtle.ConstantTimeCompare([]byte(pass), []byte(expected)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		})
	}
}
