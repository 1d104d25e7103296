// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/api/ctxkeys"
	"github.com/clientdesk/clientdesk/internal/api/handlers"
	"github.com/clientdesk/clientdesk/internal/database"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/services/entitlement"
)

var fixtureCounter atomic.Int64

// clientFixture is one client account with a subscription and a license,
// enough to stand on either side of an ownership check.
type clientFixture struct {
	Client  *models.Client
	License *models.License
}

func createClientFixture(t *testing.T, db *database.DB) *clientFixture {
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
		Type:      domain.SubscriptionMonthly,
		StartDate: start,
		EndDate:   start.AddDate(1, 0, 0),
		Price:     49.90,
	})
	require.NoError(t, err)

	license, err := models.NewLicenseStore(db).Create(ctx, sub.ID, "",
		time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	return &clientFixture{Client: client, License: license}
}

// withIdentity stands in for the session middleware, binding a role and
// client profile to every request.
func withIdentity(role domain.Role, clientID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxkeys.Role, role)
			ctx = context.WithValue(ctx, ctxkeys.ClientID, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// newAPIRouter wires the license and transaction handlers the way the server
// does, behind the given identity.
func newAPIRouter(db *database.DB, role domain.Role, clientID int64) http.Handler {
	licenseStore := models.NewLicenseStore(db)
	svc := entitlement.NewService(
		licenseStore,
		models.NewSubscriptionStore(db),
		models.NewClientStore(db),
		models.NewTicketStore(db),
		models.NewTransactionStore(db),
		domain.DefaultExpiryWarningDays,
		zerolog.Nop(),
	)

	r := chi.NewRouter()
	r.Use(withIdentity(role, clientID))
	r.Route("/api/licenses", handlers.NewLicenseHandler(licenseStore, svc).RegisterRoutes)
	r.Route("/api/transactions", handlers.NewTransactionHandler(models.NewTransactionStore(db)).RegisterRoutes)
	return r
}
