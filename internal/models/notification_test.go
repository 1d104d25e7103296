// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func TestNotificationStore_CreateAndList(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-notifications")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewNotificationStore(db)

	related := int64(42)
	created, err := store.Create(ctx, &models.Notification{
		UserID:    fx.User.ID,
		Type:      models.NotificationTypeLicenseExpiring,
		Message:   "License LIC-X expires in 10 days",
		RelatedID: &related,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	list, err := store.ListByUser(ctx, fx.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.False(t, list[0].IsRead)
	require.NotNil(t, list[0].RelatedID)
	assert.Equal(t, related, *list[0].RelatedID)
}

func TestNotificationStore_CreateUnknownUser(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-notifications")
	ctx := context.Background()

	_, err := models.NewNotificationStore(db).Create(ctx, &models.Notification{
		UserID:  99999,
		Type:    models.NotificationTypeTicketUpdate,
		Message: "hello",
	})
	require.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestNotificationStore_MarkReadIsOwnerScoped(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-notifications")
	fx := createFixtures(t, db)
	other := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewNotificationStore(db)

	created, err := store.Create(ctx, &models.Notification{
		UserID:  fx.User.ID,
		Type:    models.NotificationTypeInvoiceIssued,
		Message: "Invoice INV-2026-00001 issued",
	})
	require.NoError(t, err)

	// Someone else's id does not touch the row.
	err = store.MarkRead(ctx, created.ID, other.User.ID)
	require.ErrorIs(t, err, models.ErrNotificationNotFound)

	require.NoError(t, store.MarkRead(ctx, created.ID, fx.User.ID))

	list, err := store.ListByUser(ctx, fx.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}

func TestNotificationStore_MarkAllRead(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-notifications")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewNotificationStore(db)

	for range 3 {
		_, err := store.Create(ctx, &models.Notification{
			UserID:  fx.User.ID,
			Type:    models.NotificationTypeTicketUpdate,
			Message: "update",
		})
		require.NoError(t, err)
	}

	require.NoError(t, store.MarkAllRead(ctx, fx.User.ID))

	list, err := store.ListByUser(ctx, fx.User.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, n := range list {
		assert.True(t, n.IsRead)
	}
}
