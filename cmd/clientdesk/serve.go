// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clientdesk/clientdesk/internal/api"
	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/buildinfo"
	"github.com/clientdesk/clientdesk/internal/config"
	"github.com/clientdesk/clientdesk/internal/database"
	"github.com/clientdesk/clientdesk/internal/metrics"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
	"github.com/clientdesk/clientdesk/internal/services/notifications"
	"github.com/clientdesk/clientdesk/pkg/sqlite3store"
)

// licenseSweepInterval is how often overdue licenses are expired and
// expiration alerts dispatched while the server runs.
const licenseSweepInterval = time.Hour

func RunServeCommand() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the clientdesk server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(configDir)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Path to the configuration directory or file")

	return cmd
}

func runServer(configDir string) error {
	cfg, err := config.New(configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Config.Version = buildinfo.Version

	setupLogger(cfg.Config)

	if err := cfg.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log.Info().
		Str("version", buildinfo.Version).
		Str("commit", buildinfo.Commit).
		Msg("Starting clientdesk")

	db, err := database.OpenFromConfig(cfg.Config, cfg.GetDatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	userStore := models.NewUserStore(db)
	clientStore := models.NewClientStore(db)
	productStore := models.NewProductStore(db)
	subscriptionStore := models.NewSubscriptionStore(db)
	licenseStore := models.NewLicenseStore(db)
	invoiceStore := models.NewInvoiceStore(db)
	transactionStore := models.NewTransactionStore(db)
	ticketStore := models.NewTicketStore(db)
	notificationStore := models.NewNotificationStore(db)

	authService := auth.NewService(userStore)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.New(db)
	sessionManager.Lifetime = 7 * 24 * time.Hour
	sessionManager.Cookie.Name = "clientdesk_session"
	sessionManager.Cookie.HttpOnly = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationService := notifications.NewService(notificationStore, log.Logger)
	notificationService.Start(ctx)

	entitlementService := entitlement.NewService(
		licenseStore,
		subscriptionStore,
		clientStore,
		ticketStore,
		transactionStore,
		cfg.Config.ExpiryWarningWindow(),
		log.Logger,
	)

	srv := api.NewServer(&api.Dependencies{
		Config:         cfg.Config,
		DB:             db,
		AuthService:    authService,
		SessionManager: sessionManager,

		UserStore:         userStore,
		ClientStore:       clientStore,
		ProductStore:      productStore,
		SubscriptionStore: subscriptionStore,
		LicenseStore:      licenseStore,
		InvoiceStore:      invoiceStore,
		TransactionStore:  transactionStore,
		TicketStore:       ticketStore,
		NotificationStore: notificationStore,

		EntitlementService: entitlementService,
	})

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Config.Host, cfg.Config.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on %s:%d: %w", cfg.Config.Host, cfg.Config.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", listener.Addr().String()).Msg("HTTP server listening")
		return srv.Serve(listener)
	})

	var metricsServer *metrics.Server
	if cfg.Config.MetricsEnabled {
		manager := metrics.NewManager(entitlementService)
		metricsServer = metrics.NewServer(manager, cfg.Config.MetricsHost, cfg.Config.MetricsPort, cfg.Config.MetricsBasicAuthUsers)
		g.Go(metricsServer.ListenAndServe)
	}

	g.Go(func() error {
		runLicenseSweeps(gctx, entitlementService, notificationService)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Metrics server shutdown failed")
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}

// runLicenseSweeps expires overdue licenses and dispatches expiration alerts
// on startup and then every sweep interval until the context is cancelled.
func runLicenseSweeps(ctx context.Context, svc *entitlement.Service, sink entitlement.AlertSink) {
	sweep := func() {
		now := time.Now()

		expired, err := svc.ExpireOverdue(ctx, now)
		if err != nil {
			log.Error().Err(err).Msg("License expiry sweep failed")
		} else if expired > 0 {
			log.Info().Int64("expired", expired).Msg("Expired overdue licenses")
		}

		dispatched, err := svc.DispatchExpirationAlerts(ctx, now, sink)
		if err != nil {
			log.Error().Err(err).Msg("Expiration alert dispatch failed")
		} else if dispatched > 0 {
			log.Info().Int("dispatched", dispatched).Msg("Dispatched expiration alerts")
		}
	}

	sweep()

	ticker := time.NewTicker(licenseSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}
