// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
	"github.com/clientdesk/clientdesk/internal/keygen"
)

type Invoice struct {
	ID             int64     `json:"id"`
	ClientID       int64     `json:"clientId"`
	SubscriptionID *int64    `json:"subscriptionId,omitempty"`
	InvoiceNumber  string    `json:"invoiceNumber"`
	Amount         float64   `json:"amount"`
	Tax            float64   `json:"tax"`
	TotalAmount    float64   `json:"totalAmount"`
	IssueDate      time.Time `json:"issueDate"`
	DueDate        time.Time `json:"dueDate"`
	IsPaid         bool      `json:"isPaid"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type InvoiceStore struct {
	db dbinterface.TxBeginner
}

func NewInvoiceStore(db dbinterface.TxBeginner) *InvoiceStore {
	return &InvoiceStore{db: db}
}

// Create inserts an invoice. The invoice number is assigned from a per-year
// sequence bumped inside the same transaction as the insert, so concurrent
// creations cannot observe the same value. TotalAmount is always recomputed
// as amount + tax; a caller-supplied total is ignored.
func (s *InvoiceStore) Create(ctx context.Context, invoice *Invoice) (*Invoice, error) {
	if invoice.ClientID == 0 {
		return nil, NewValidationError("clientId", "is required")
	}
	if invoice.Amount < 0 {
		return nil, NewValidationError("amount", "must not be negative")
	}
	if invoice.Tax < 0 {
		return nil, NewValidationError("tax", "must not be negative")
	}
	if invoice.IssueDate.IsZero() || invoice.DueDate.IsZero() {
		return nil, NewValidationError("issueDate", "issueDate and dueDate are required")
	}
	if invoice.DueDate.Before(invoice.IssueDate) {
		return nil, NewValidationError("dueDate", "must not precede issueDate")
	}

	invoice.TotalAmount = invoice.Amount + invoice.Tax

	now := time.Now().UTC()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if invoice.InvoiceNumber == "" {
		year := invoice.IssueDate.Year()

		var seq int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO invoice_sequences (year, last_value)
			VALUES (?, 1)
			ON CONFLICT (year) DO UPDATE SET last_value = invoice_sequences.last_value + 1
			RETURNING last_value`, year).Scan(&seq)
		if err != nil {
			return nil, fmt.Errorf("advance invoice sequence: %w", err)
		}

		invoice.InvoiceNumber = keygen.FormatInvoiceNumber(year, seq)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices (client_id, subscription_id, invoice_number, amount, tax, total_amount, issue_date, due_date, is_paid, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		invoice.ClientID, invoice.SubscriptionID, invoice.InvoiceNumber,
		invoice.Amount, invoice.Tax, invoice.TotalAmount,
		invoice.IssueDate, invoice.DueDate, invoice.IsPaid, now, now,
	).Scan(&invoice.ID)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return nil, &ConflictError{Resource: "invoice", Key: invoice.InvoiceNumber}
		case isForeignKeyConstraintError(err):
			return nil, ErrClientNotFound
		case isCheckConstraintError(err):
			return nil, NewValidationError("dueDate", "must not precede issueDate")
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return invoice, nil
}

const invoiceColumns = `id, client_id, subscription_id, invoice_number, amount, tax, total_amount, issue_date, due_date, is_paid, created_at, updated_at`

func scanInvoiceRow(scan func(dest ...any) error) (*Invoice, error) {
	invoice := &Invoice{}
	var subscriptionID sql.NullInt64
	err := scan(
		&invoice.ID,
		&invoice.ClientID,
		&subscriptionID,
		&invoice.InvoiceNumber,
		&invoice.Amount,
		&invoice.Tax,
		&invoice.TotalAmount,
		&invoice.IssueDate,
		&invoice.DueDate,
		&invoice.IsPaid,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	if subscriptionID.Valid {
		invoice.SubscriptionID = &subscriptionID.Int64
	}
	return invoice, nil
}

func (s *InvoiceStore) Get(ctx context.Context, id int64) (*Invoice, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	return scanInvoiceRow(row.Scan)
}

func (s *InvoiceStore) collect(rows *sql.Rows) ([]*Invoice, error) {
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		invoice, err := scanInvoiceRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (s *InvoiceStore) List(ctx context.Context) ([]*Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *InvoiceStore) ListByClient(ctx context.Context, clientID int64) ([]*Invoice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE client_id = ? ORDER BY id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}
