// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func TestInvoiceStore_CreateAssignsSequentialNumbers(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	first, err := store.Create(ctx, &models.Invoice{
		ClientID:  fx.Client.ID,
		Amount:    100,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00001", first.InvoiceNumber)

	second, err := store.Create(ctx, &models.Invoice{
		ClientID:  fx.Client.ID,
		Amount:    200,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-00002", second.InvoiceNumber)

	// The sequence is per issue year.
	nextYear, err := store.Create(ctx, &models.Invoice{
		ClientID:  fx.Client.ID,
		Amount:    300,
		IssueDate: issue.AddDate(1, 0, 0),
		DueDate:   issue.AddDate(1, 0, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2027-00001", nextYear.InvoiceNumber)
}

func TestInvoiceStore_CreateConcurrentNumbersAreUnique(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	const workers = 20
	numbers := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			invoice, err := store.Create(ctx, &models.Invoice{
				ClientID:  fx.Client.ID,
				Amount:    float64(i + 1),
				IssueDate: issue,
				DueDate:   issue.AddDate(0, 0, 30),
			})
			if err != nil {
				errs[i] = err
				return
			}
			numbers[i] = invoice.InvoiceNumber
		}(i)
	}
	wg.Wait()

	seen := make(map[string]int, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		seen[numbers[i]]++
	}
	assert.Len(t, seen, workers, "every invoice must get a distinct number: %v", seen)
}

func TestInvoiceStore_CreateRecomputesTotal(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	invoice, err := store.Create(ctx, &models.Invoice{
		ClientID:    fx.Client.ID,
		Amount:      100.00,
		Tax:         8.25,
		TotalAmount: 999.99, // caller-supplied totals are ignored
		IssueDate:   issue,
		DueDate:     issue.AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assert.InDelta(t, 108.25, invoice.TotalAmount, 0.0001)

	got, err := store.Get(ctx, invoice.ID)
	require.NoError(t, err)
	assert.InDelta(t, 108.25, got.TotalAmount, 0.0001)
	assert.False(t, got.IsPaid)
}

func TestInvoiceStore_CreateValidation(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	fx := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		invoice models.Invoice
	}{
		{"missing client", models.Invoice{Amount: 10, IssueDate: issue, DueDate: issue.AddDate(0, 0, 30)}},
		{"negative amount", models.Invoice{ClientID: fx.Client.ID, Amount: -1, IssueDate: issue, DueDate: issue.AddDate(0, 0, 30)}},
		{"negative tax", models.Invoice{ClientID: fx.Client.ID, Amount: 10, Tax: -1, IssueDate: issue, DueDate: issue.AddDate(0, 0, 30)}},
		{"missing dates", models.Invoice{ClientID: fx.Client.ID, Amount: 10}},
		{"due before issue", models.Invoice{ClientID: fx.Client.ID, Amount: 10, IssueDate: issue, DueDate: issue.AddDate(0, 0, -1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoice := tt.invoice
			_, err := store.Create(ctx, &invoice)
			var validation *models.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestInvoiceStore_CreateUnknownClient(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(ctx, &models.Invoice{
		ClientID:  99999,
		Amount:    10,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	})
	require.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestInvoiceStore_ListByClient(t *testing.T) {
	t.Parallel()

	db := testdb.Open(t, "models-invoices")
	fx := createFixtures(t, db)
	other := createFixtures(t, db)
	ctx := context.Background()

	store := models.NewInvoiceStore(db)
	issue := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	mine, err := store.Create(ctx, &models.Invoice{
		ClientID:  fx.Client.ID,
		Amount:    10,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	_, err = store.Create(ctx, &models.Invoice{
		ClientID:  other.Client.ID,
		Amount:    20,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 30),
	})
	require.NoError(t, err)

	invoices, err := store.ListByClient(ctx, fx.Client.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, mine.ID, invoices[0].ID)
}
