// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/database"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

var fixtureCounter atomic.Int64

// fixtures bundles one client with a subscription, which most store tests
// need as a foreign-key target.
type fixtures struct {
	User         *models.User
	Client       *models.Client
	Product      *models.Product
	Subscription *models.Subscription
}

func createFixtures(t *testing.T, db *database.DB) *fixtures {
	t.Helper()
	return createFixturesWithType(t, db, domain.SubscriptionMonthly)
}

func createFixturesWithType(t *testing.T, db *database.DB, subType domain.SubscriptionType) *fixtures {
	t.Helper()
	ctx := context.Background()

	suffix := fmt.Sprintf("%d-%d", time.Now().UnixNano(), fixtureCounter.Add(1))

	user, err := models.NewUserStore(db).Create(ctx,
		"user-"+suffix, "user-"+suffix+"@example.com",
		"$argon2id$v=19$m=65536,t=3,p=2$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g",
		domain.RoleClient)
	require.NoError(t, err)

	client, err := models.NewClientStore(db).Create(ctx, &models.Client{
		UserID:      user.ID,
		CompanyName: "Acme " + suffix,
		ContactName: "Jordan Doe",
		Email:       "billing-" + suffix + "@example.com",
	})
	require.NoError(t, err)

	product, err := models.NewProductStore(db).Create(ctx, &models.Product{
		Name:    "Widget Suite " + suffix,
		Version: "2.1.0",
		Price:   49.90,
	})
	require.NoError(t, err)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	sub, err := models.NewSubscriptionStore(db).Create(ctx, &models.Subscription{
		ClientID:  client.ID,
		ProductID: product.ID,
		Type:      subType,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Price:     49.90,
	})
	require.NoError(t, err)

	return &fixtures{
		User:         user,
		Client:       client,
		Product:      product,
		Subscription: sub,
	}
}
