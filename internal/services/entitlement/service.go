// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package entitlement drives the license lifecycle: explicit transitions,
// the overdue-expiration sweep, expiration alerting, and the dashboard
// aggregates derived from entitlement state.
package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

// LicenseStore is the slice of the license store the engine depends on.
type LicenseStore interface {
	Get(ctx context.Context, id int64) (*models.License, error)
	Activate(ctx context.Context, id int64, activatedAt time.Time) (bool, error)
	Revoke(ctx context.Context, id int64) (bool, error)
	Renew(ctx context.Context, id int64, newExpiration time.Time) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	ListExpiring(ctx context.Context, now time.Time, days int) ([]*models.ExpiringLicense, error)
	MarkAlerted(ctx context.Context, id int64, previousCount int) (bool, error)
	CountActive(ctx context.Context) (int, error)
}

type SubscriptionStore interface {
	Get(ctx context.Context, id int64) (*models.Subscription, error)
}

type ClientStore interface {
	Count(ctx context.Context) (int, error)
}

type TicketStore interface {
	CountOpen(ctx context.Context) (int, error)
}

type TransactionStore interface {
	MonthlyRevenue(ctx context.Context, now time.Time) (float64, error)
}

// AlertSink receives one alert per license per dispatch round. Delivery is
// asynchronous on the sink's side; the engine only hands the record over.
type AlertSink interface {
	LicenseExpiring(alert *models.ExpiringLicense)
}

type Service struct {
	licenses      LicenseStore
	subscriptions SubscriptionStore
	clients       ClientStore
	tickets       TicketStore
	transactions  TransactionStore
	warningDays   int
	logger        zerolog.Logger
}

func NewService(
	licenses LicenseStore,
	subscriptions SubscriptionStore,
	clients ClientStore,
	tickets TicketStore,
	transactions TransactionStore,
	warningDays int,
	logger zerolog.Logger,
) *Service {
	if warningDays <= 0 {
		warningDays = domain.DefaultExpiryWarningDays
	}

	return &Service{
		licenses:      licenses,
		subscriptions: subscriptions,
		clients:       clients,
		tickets:       tickets,
		transactions:  transactions,
		warningDays:   warningDays,
		logger:        logger.With().Str("component", "entitlement").Logger(),
	}
}

// Activate moves a pending license into active, stamping the activation
// date. Any other starting status yields an InvalidTransitionError.
func (s *Service) Activate(ctx context.Context, id int64) (*models.License, error) {
	moved, err := s.licenses.Activate(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("activate license: %w", err)
	}
	if !moved {
		return nil, s.transitionError(ctx, id, "activate")
	}

	s.logger.Info().Int64("licenseId", id).Msg("license activated")
	return s.licenses.Get(ctx, id)
}

// Revoke moves an active license into revoked. Revoked is terminal; there is
// no path back out.
func (s *Service) Revoke(ctx context.Context, id int64) (*models.License, error) {
	moved, err := s.licenses.Revoke(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("revoke license: %w", err)
	}
	if !moved {
		return nil, s.transitionError(ctx, id, "revoke")
	}

	s.logger.Info().Int64("licenseId", id).Msg("license revoked")
	return s.licenses.Get(ctx, id)
}

// Renew extends an active license by one billing period of its subscription,
// counted from the current expiration date with end-of-month clamping, and
// resets the notification counter so the next warning window alerts again.
func (s *Service) Renew(ctx context.Context, id int64) (*models.License, error) {
	license, err := s.licenses.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sub, err := s.subscriptions.Get(ctx, license.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("load subscription %d: %w", license.SubscriptionID, err)
	}

	newExpiration := domain.AddMonthsClamped(license.ExpirationDate, sub.Type.BillingPeriodMonths())

	moved, err := s.licenses.Renew(ctx, id, newExpiration)
	if err != nil {
		return nil, fmt.Errorf("renew license: %w", err)
	}
	if !moved {
		return nil, s.transitionError(ctx, id, "renew")
	}

	s.logger.Info().
		Int64("licenseId", id).
		Time("expirationDate", newExpiration).
		Msg("license renewed")
	return s.licenses.Get(ctx, id)
}

// ExpireOverdue transitions every active license past its expiration date
// into expired. It backs the sweep job and is safe to run any number of
// times per day.
func (s *Service) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.licenses.ExpireOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire overdue licenses: %w", err)
	}

	if count > 0 {
		s.logger.Info().Int64("expired", count).Msg("expiration sweep moved licenses")
	} else {
		s.logger.Debug().Msg("expiration sweep found nothing overdue")
	}
	return count, nil
}

// ExpiringLicenses lists active licenses inside the warning window without
// mutating anything.
func (s *Service) ExpiringLicenses(ctx context.Context, now time.Time) ([]*models.ExpiringLicense, error) {
	return s.licenses.ListExpiring(ctx, now, s.warningDays)
}

// DispatchExpirationAlerts sends at most one alert per license per call. The
// notification counter acts as the dispatch guard: the increment only lands
// when the counter still holds the value read by the query, so concurrent
// sweeps cannot double-send and a failed increment skips the sink entirely.
// It returns how many alerts were handed to the sink.
func (s *Service) DispatchExpirationAlerts(ctx context.Context, now time.Time, sink AlertSink) (int, error) {
	expiring, err := s.licenses.ListExpiring(ctx, now, s.warningDays)
	if err != nil {
		return 0, fmt.Errorf("list expiring licenses: %w", err)
	}

	dispatched := 0
	for _, alert := range expiring {
		claimed, err := s.licenses.MarkAlerted(ctx, alert.LicenseID, alert.NotificationsSent)
		if err != nil {
			s.logger.Error().Err(err).Int64("licenseId", alert.LicenseID).Msg("failed to mark license alerted")
			continue
		}
		if !claimed {
			// Another dispatcher got here first.
			continue
		}

		sink.LicenseExpiring(alert)
		dispatched++
	}

	if dispatched > 0 {
		s.logger.Info().Int("dispatched", dispatched).Int("window", s.warningDays).Msg("expiration alerts dispatched")
	}
	return dispatched, nil
}

// Stats is the dashboard aggregate. Each figure is computed independently; a
// failing source logs and reports zero rather than failing the whole call.
type Stats struct {
	TotalClients   int     `json:"totalClients"`
	ActiveLicenses int     `json:"activeLicenses"`
	OpenTickets    int     `json:"openTickets"`
	MonthlyRevenue float64 `json:"monthlyRevenue"`
}

func (s *Service) DashboardStats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.clients.Count(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard: client count unavailable")
			return nil
		}
		stats.TotalClients = count
		return nil
	})
	g.Go(func() error {
		count, err := s.licenses.CountActive(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard: active license count unavailable")
			return nil
		}
		stats.ActiveLicenses = count
		return nil
	})
	g.Go(func() error {
		count, err := s.tickets.CountOpen(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard: open ticket count unavailable")
			return nil
		}
		stats.OpenTickets = count
		return nil
	})
	g.Go(func() error {
		revenue, err := s.transactions.MonthlyRevenue(ctx, now)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard: monthly revenue unavailable")
			return nil
		}
		stats.MonthlyRevenue = revenue
		return nil
	})

	// The closures never return an error, so Wait only propagates a
	// cancelled context.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// transitionError reports why a guarded transition did not move the row:
// either the license is gone, or it sat in a status the transition does not
// accept.
func (s *Service) transitionError(ctx context.Context, id int64, attempted string) error {
	license, err := s.licenses.Get(ctx, id)
	if err != nil {
		return err
	}
	return &models.InvalidTransitionError{
		Entity:    "license",
		Current:   license.Status,
		Attempted: attempted,
	}
}
