// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api assembles the HTTP surface: session handling, the role policy
// gate, and one sub-router per resource.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/clientdesk/clientdesk/internal/api/handlers"
	"github.com/clientdesk/clientdesk/internal/api/middleware"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/database"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

type Dependencies struct {
	Config         *domain.Config
	DB             *database.DB
	AuthService    *auth.Service
	SessionManager *scs.SessionManager

	UserStore         *models.UserStore
	ClientStore       *models.ClientStore
	ProductStore      *models.ProductStore
	SubscriptionStore *models.SubscriptionStore
	LicenseStore      *models.LicenseStore
	InvoiceStore      *models.InvoiceStore
	TransactionStore  *models.TransactionStore
	TicketStore       *models.TicketStore
	NotificationStore *models.NotificationStore

	EntitlementService *entitlement.Service
}

type Server struct {
	deps *Dependencies

	mu     sync.Mutex
	server *http.Server
}

func NewServer(deps *Dependencies) *Server {
	return &Server{deps: deps}
}

// Serve runs the HTTP server on the listener until it fails or is shut down.
func (s *Server) Serve(listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.server = server
	s.mu.Unlock()

	return server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// Handler builds the full router.
func (s *Server) Handler() http.Handler {
	deps := s.deps

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))

	corsMiddleware := cors.New(cors.Options{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(corsMiddleware.Handler)

	r.Use(deps.SessionManager.LoadAndSave)

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.ClientStore, deps.SessionManager)
	healthHandler := handlers.NewHealthHandler(deps.DB.Conn())

	baseURL := deps.Config.NormalizeBaseURL()
	r.Route(joinBaseURL(baseURL, "/api"), func(r chi.Router) {
		r.Route("/health", healthHandler.Routes)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSetup(deps.AuthService))

			r.Route("/auth", func(r chi.Router) {
				authHandler.RegisterPublicRoutes(r)

				r.Group(func(r chi.Router) {
					r.Use(middleware.IsAuthenticated(deps.SessionManager))
					authHandler.RegisterProtectedRoutes(r)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.IsAuthenticated(deps.SessionManager))

				r.Route("/users", handlers.NewUserHandler(deps.AuthService).RegisterRoutes)
				r.Route("/clients", handlers.NewClientHandler(deps.ClientStore).RegisterRoutes)
				r.Route("/products", handlers.NewProductHandler(deps.ProductStore).RegisterRoutes)
				r.Route("/subscriptions", handlers.NewSubscriptionHandler(deps.SubscriptionStore).RegisterRoutes)
				r.Route("/licenses", handlers.NewLicenseHandler(deps.LicenseStore, deps.EntitlementService).RegisterRoutes)
				r.Route("/invoices", handlers.NewInvoiceHandler(deps.InvoiceStore).RegisterRoutes)
				r.Route("/transactions", handlers.NewTransactionHandler(deps.TransactionStore).RegisterRoutes)
				r.Route("/tickets", handlers.NewTicketHandler(deps.TicketStore).RegisterRoutes)
				r.Route("/notifications", handlers.NewNotificationHandler(deps.NotificationStore).RegisterRoutes)
				r.Route("/dashboard", handlers.NewDashboardHandler(deps.EntitlementService).RegisterRoutes)
			})
		})
	})

	return r
}

func joinBaseURL(baseURL, path string) string {
	if baseURL == "" || baseURL == "/" {
		return path
	}
	return fmt.Sprintf("%s%s", strings.TrimSuffix(baseURL, "/"), path)
}
