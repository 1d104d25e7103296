// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func TestSubscriptionStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-subscriptions")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewSubscriptionStore(db)
	start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	sub, err := store.Create(ctx, &models.Subscription{
		ClientID:  fx.Client.ID,
		ProductID: fx.Product.ID,
		Type:      domain.SubscriptionYearly,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Price:     499,
		AutoRenew: true,
	})
	require.NoError(t, err)

	got, err := store.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionYearly, got.Type)
	assert.True(t, got.AutoRenew)
	assert.InDelta(t, 499, got.Price, 0.0001)
}

func TestSubscriptionStore_CreateValidation(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-subscriptions")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewSubscriptionStore(db)
	start := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  models.Subscription
	}{
		{"missing client", models.Subscription{ProductID: fx.Product.ID, Type: domain.SubscriptionMonthly, StartDate: start, EndDate: start.AddDate(0, 1, 0)}},
		{"missing product", models.Subscription{ClientID: fx.Client.ID, Type: domain.SubscriptionMonthly, StartDate: start, EndDate: start.AddDate(0, 1, 0)}},
		{"bad type", models.Subscription{ClientID: fx.Client.ID, ProductID: fx.Product.ID, Type: "weekly", StartDate: start, EndDate: start.AddDate(0, 1, 0)}},
		{"end not after start", models.Subscription{ClientID: fx.Client.ID, ProductID: fx.Product.ID, Type: domain.SubscriptionMonthly, StartDate: start, EndDate: start}},
		{"negative price", models.Subscription{ClientID: fx.Client.ID, ProductID: fx.Product.ID, Type: domain.SubscriptionMonthly, StartDate: start, EndDate: start.AddDate(0, 1, 0), Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := tt.sub
			_, err := store.Create(ctx, &sub)
			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestSubscriptionStore_UpdateKeepsOwnership(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-subscriptions")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewSubscriptionStore(db)

	sub := fx.Subscription
	sub.Type = domain.SubscriptionQuarterly
	sub.Price = 120
	sub.AutoRenew = true

	updated, err := store.Update(ctx, sub)
	require.NoError(t, err)

	got, err := store.Get(ctx, updated.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionQuarterly, got.Type)
	assert.InDelta(t, 120, got.Price, 0.0001)
	assert.Equal(t, fx.Client.ID, got.ClientID)
	assert.Equal(t, fx.Product.ID, got.ProductID)
}

func TestSubscriptionStore_UpdateMissing(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-subscriptions")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewSubscriptionStore(db)

	sub := *fx.Subscription
	sub.ID = 99999

	_, err := store.Update(ctx, &sub)
	require.ErrorIs(t, err, models.ErrSubscriptionNotFound)
}

func TestSubscriptionStore_ListByClient(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-subscriptions")
	fx := createFixtures(t, db)
	other := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewSubscriptionStore(db)

	subs, err := store.ListByClient(ctx, fx.Client.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, fx.Subscription.ID, subs[0].ID)

	subs, err = store.ListByClient(ctx, other.Client.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, other.Subscription.ID, subs[0].ID)
}
