// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifications delivers in-app notifications through a buffered
// queue so that callers on the request path never block on persistence.
package notifications

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clientdesk/clientdesk/internal/models"
)

const (
	defaultQueueSize = 100
	defaultWorkers   = 2
)

// EventType selects the notification row type written for an event.
type EventType string

const (
	EventLicenseExpiring EventType = models.NotificationTypeLicenseExpiring
	EventTicketUpdate    EventType = models.NotificationTypeTicketUpdate
	EventInvoiceIssued   EventType = models.NotificationTypeInvoiceIssued
)

type Event struct {
	Type      EventType
	UserID    int64
	Message   string
	RelatedID *int64
}

// Store is the slice of the notification store the dispatcher writes to.
type Store interface {
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
}

type Service struct {
	store     Store
	logger    zerolog.Logger
	queue     chan Event
	startOnce sync.Once
}

func NewService(store Store, logger zerolog.Logger) *Service {
	if store == nil {
		return nil
	}

	return &Service{
		store:  store,
		logger: logger.With().Str("component", "notifications").Logger(),
		queue:  make(chan Event, defaultQueueSize),
	}
}

// Start launches the queue workers. Safe to call once; later calls are no-ops.
func (s *Service) Start(ctx context.Context) {
	if s == nil {
		return
	}

	s.startOnce.Do(func() {
		for range defaultWorkers {
			go s.worker(ctx)
		}
	})
}

// Notify enqueues an event for delivery. A full queue drops the event with a
// warning rather than stalling the caller.
func (s *Service) Notify(event Event) {
	if s == nil || s.store == nil {
		return
	}

	if s.queue == nil {
		go s.dispatch(context.Background(), event)
		return
	}

	select {
	case s.queue <- event:
	default:
		s.logger.Warn().Str("event", string(event.Type)).Msg("queue full, dropping event")
	}
}

// LicenseExpiring turns an expiration alert into a notification for the
// owning client's user account.
func (s *Service) LicenseExpiring(alert *models.ExpiringLicense) {
	if alert == nil {
		return
	}

	licenseID := alert.LicenseID
	s.Notify(Event{
		Type:      EventLicenseExpiring,
		UserID:    alert.ClientUserID,
		Message:   formatExpirationMessage(alert),
		RelatedID: &licenseID,
	})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-s.queue:
			s.dispatch(ctx, event)
		}
	}
}

func (s *Service) dispatch(ctx context.Context, event Event) {
	if event.UserID == 0 || event.Message == "" {
		return
	}

	_, err := s.store.Create(ctx, &models.Notification{
		UserID:    event.UserID,
		Type:      string(event.Type),
		Message:   event.Message,
		RelatedID: event.RelatedID,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Str("event", string(event.Type)).
			Int64("userId", event.UserID).
			Msg("failed to persist notification")
	}
}

func formatExpirationMessage(alert *models.ExpiringLicense) string {
	day := "days"
	if alert.ExpiresIn == 1 {
		day = "day"
	}
	return fmt.Sprintf("License %s expires in %d %s (%s)",
		alert.LicenseKey, alert.ExpiresIn, day, alert.ExpirationDate.Format("2006-01-02"))
}
