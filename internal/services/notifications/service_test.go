// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/models"
)

type captureStore struct {
	mu      sync.Mutex
	created []*models.Notification
}

func (c *captureStore) Create(_ context.Context, n *models.Notification) (*models.Notification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.created = append(c.created, n)
	return n, nil
}

func (c *captureStore) snapshot() []*models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*models.Notification(nil), c.created...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestLicenseExpiringPersistsNotification(t *testing.T) {
	t.Parallel()

	store := &captureStore{}
	svc := NewService(store, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	svc.LicenseExpiring(&models.ExpiringLicense{
		LicenseID:      9,
		LicenseKey:     "LIC-TEST",
		ClientUserID:   4,
		CompanyName:    "Acme Corp",
		ExpirationDate: time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC),
		ExpiresIn:      10,
	})

	waitFor(t, func() bool { return len(store.snapshot()) == 1 })

	created := store.snapshot()[0]
	require.Equal(t, int64(4), created.UserID)
	require.Equal(t, models.NotificationTypeLicenseExpiring, created.Type)
	require.Equal(t, "License LIC-TEST expires in 10 days (2026-09-10)", created.Message)
	require.NotNil(t, created.RelatedID)
	require.Equal(t, int64(9), *created.RelatedID)
}

func TestNotifyDropsEventWithoutRecipient(t *testing.T) {
	t.Parallel()

	store := &captureStore{}
	svc := NewService(store, zerolog.Nop())

	svc.dispatch(context.Background(), Event{Type: EventTicketUpdate, Message: "orphaned"})
	require.Empty(t, store.snapshot())
}

func TestFormatExpirationMessageSingularDay(t *testing.T) {
	t.Parallel()

	msg := formatExpirationMessage(&models.ExpiringLicense{
		LicenseKey:     "LIC-ONE",
		ExpirationDate: time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		ExpiresIn:      1,
	})
	require.Equal(t, "License LIC-ONE expires in 1 day (2026-09-01)", msg)
}

func TestNewServiceRequiresStore(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewService(nil, zerolog.Nop()))
}
