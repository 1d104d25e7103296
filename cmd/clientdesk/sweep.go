// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
	"github.com/clientdesk/clientdesk/internal/services/notifications"
)

// RunSweepCommand runs one license maintenance pass: overdue licenses are
// expired and expiration alerts are dispatched, then the process exits. Meant
// for cron-style setups where the server is not running continuously.
func RunSweepCommand() *cobra.Command {
	var (
		configDir   string
		warningDays int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire overdue licenses and dispatch expiration alerts once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openForCommand(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			now := time.Now()

			notificationService := notifications.NewService(models.NewNotificationStore(db), log.Logger)
			notificationService.Start(ctx)

			svc := entitlement.NewService(
				models.NewLicenseStore(db),
				models.NewSubscriptionStore(db),
				models.NewClientStore(db),
				models.NewTicketStore(db),
				models.NewTransactionStore(db),
				warningDays,
				log.Logger,
			)

			expired, err := svc.ExpireOverdue(ctx, now)
			if err != nil {
				return err
			}

			dispatched, err := svc.DispatchExpirationAlerts(ctx, now, notificationService)
			if err != nil {
				return err
			}

			// Queued alerts are persisted by background workers.
			time.Sleep(time.Second)

			cmd.Printf("Expired %d overdue licenses, dispatched %d expiration alerts\n", expired, dispatched)
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Path to the configuration directory or file")
	cmd.Flags().IntVar(&warningDays, "warning-days", domain.DefaultExpiryWarningDays, "Days before expiration to alert on")

	return cmd
}
