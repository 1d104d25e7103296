// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func TestLicenseStore_CreateGeneratesKey(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	expiration := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	license, err := store.Create(ctx, fx.Subscription.ID, "", expiration)
	require.NoError(t, err)

	assert.NotZero(t, license.ID)
	assert.True(t, strings.HasPrefix(license.LicenseKey, "LIC-"), "key %q", license.LicenseKey)
	assert.Equal(t, models.LicenseStatusPending, license.Status)
	assert.Nil(t, license.ActivationDate)
	assert.Zero(t, license.NotificationsSent)
}

func TestLicenseStore_CreateRejectsDuplicateKey(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	expiration := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, fx.Subscription.ID, "LIC-DUP", expiration)
	require.NoError(t, err)

	_, err = store.Create(ctx, fx.Subscription.ID, "LIC-DUP", expiration)
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "LIC-DUP", conflict.Key)
	assert.Equal(t, "license already exists: LIC-DUP", conflict.Error())
}

func TestLicenseStore_CreateConcurrentKeylessCreatesGetDistinctKeys(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	expiration := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	const workers = 2
	keys := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			license, err := store.Create(ctx, fx.Subscription.ID, "", expiration)
			if err != nil {
				errs[i] = err
				return
			}
			keys[i] = license.LicenseKey
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
	}
	assert.NotEqual(t, keys[0], keys[1])
}

func TestLicenseStore_CreateUnknownSubscription(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	ctx := context.Background()

	store := models.NewLicenseStore(db)

	_, err := store.Create(ctx, 99999, "", time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, models.ErrSubscriptionNotFound)
}

func TestLicenseStore_Transitions(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	expiration := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	license, err := store.Create(ctx, fx.Subscription.ID, "", expiration)
	require.NoError(t, err)

	// Revoke and renew require active.
	moved, err := store.Revoke(ctx, license.ID)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = store.Renew(ctx, license.ID, expiration.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.False(t, moved)

	activatedAt := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	moved, err = store.Activate(ctx, license.ID, activatedAt)
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := store.Get(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActive, got.Status)
	require.NotNil(t, got.ActivationDate)
	assert.Equal(t, activatedAt, got.ActivationDate.UTC())

	// Activate is not idempotent: the second attempt finds no pending row.
	moved, err = store.Activate(ctx, license.ID, activatedAt)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = store.Revoke(ctx, license.ID)
	require.NoError(t, err)
	assert.True(t, moved)

	// Revoked is terminal: nothing moves it again.
	moved, err = store.Activate(ctx, license.ID, activatedAt)
	require.NoError(t, err)
	assert.False(t, moved)

	moved, err = store.Renew(ctx, license.ID, expiration.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.False(t, moved)

	got, err = store.Get(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusRevoked, got.Status)
}

func TestLicenseStore_RenewResetsNotificationCounter(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	expiration := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)

	license, err := store.Create(ctx, fx.Subscription.ID, "", expiration)
	require.NoError(t, err)

	_, err = store.Activate(ctx, license.ID, time.Now().UTC())
	require.NoError(t, err)

	claimed, err := store.MarkAlerted(ctx, license.ID, 0)
	require.NoError(t, err)
	assert.True(t, claimed)

	newExpiration := expiration.AddDate(0, 1, 0)
	moved, err := store.Renew(ctx, license.ID, newExpiration)
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := store.Get(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, newExpiration, got.ExpirationDate.UTC())
	assert.Zero(t, got.NotificationsSent)
}

func TestLicenseStore_ExpireOverdue(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	now := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	overdue, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 0, -1))
	require.NoError(t, err)
	_, err = store.Activate(ctx, overdue.ID, now.AddDate(0, -1, 0))
	require.NoError(t, err)

	current, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 2, 0))
	require.NoError(t, err)
	_, err = store.Activate(ctx, current.ID, now.AddDate(0, -1, 0))
	require.NoError(t, err)

	// Pending licenses never expire, no matter the date.
	pendingOverdue, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 0, -5))
	require.NoError(t, err)

	count, err := store.ExpireOverdue(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	got, err := store.Get(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusExpired, got.Status)

	got, err = store.Get(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusActive, got.Status)

	got, err = store.Get(ctx, pendingOverdue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LicenseStatusPending, got.Status)

	// A second sweep finds nothing left to expire.
	count, err = store.ExpireOverdue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLicenseStore_ListExpiringWindow(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)
	now := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)

	inside, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 0, 10))
	require.NoError(t, err)
	_, err = store.Activate(ctx, inside.ID, now)
	require.NoError(t, err)

	outside, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 0, 30))
	require.NoError(t, err)
	_, err = store.Activate(ctx, outside.ID, now)
	require.NoError(t, err)

	// Inside the window by date, but pending.
	pending, err := store.Create(ctx, fx.Subscription.ID, "", now.AddDate(0, 0, 5))
	require.NoError(t, err)
	_ = pending

	expiring, err := store.ListExpiring(ctx, now, 14)
	require.NoError(t, err)
	require.Len(t, expiring, 1)

	alert := expiring[0]
	assert.Equal(t, inside.ID, alert.LicenseID)
	assert.Equal(t, fx.Client.ID, alert.ClientID)
	assert.Equal(t, fx.User.ID, alert.ClientUserID)
	assert.Equal(t, fx.Client.CompanyName, alert.CompanyName)
	assert.Equal(t, 10, alert.ExpiresIn)
}

func TestLicenseStore_MarkAlertedIsGuardedByCounter(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)

	license, err := store.Create(ctx, fx.Subscription.ID, "", time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = store.Activate(ctx, license.ID, time.Now().UTC())
	require.NoError(t, err)

	claimed, err := store.MarkAlerted(ctx, license.ID, 0)
	require.NoError(t, err)
	assert.True(t, claimed)

	// A concurrent sweep holding the same stale counter loses the claim.
	claimed, err = store.MarkAlerted(ctx, license.ID, 0)
	require.NoError(t, err)
	assert.False(t, claimed)

	claimed, err = store.MarkAlerted(ctx, license.ID, 1)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestLicenseStore_OwnerClientID(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)

	license, err := store.Create(ctx, fx.Subscription.ID, "", time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	owner, err := store.OwnerClientID(ctx, license.ID)
	require.NoError(t, err)
	assert.Equal(t, fx.Client.ID, owner)

	_, err = store.OwnerClientID(ctx, 99999)
	require.ErrorIs(t, err, models.ErrLicenseNotFound)
}

func TestLicenseStore_GetByKey(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-licenses")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewLicenseStore(db)

	license, err := store.Create(ctx, fx.Subscription.ID, "LIC-LOOKUP", time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	got, err := store.GetByKey(ctx, "LIC-LOOKUP")
	require.NoError(t, err)
	assert.Equal(t, license.ID, got.ID)

	_, err = store.GetByKey(ctx, "LIC-MISSING")
	require.ErrorIs(t, err, models.ErrLicenseNotFound)
}
