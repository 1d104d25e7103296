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
)

// Transaction status values.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusRefunded  = "refunded"
	TransactionStatusFailed    = "failed"
)

func validTransactionStatus(status string) bool {
	switch status {
	case TransactionStatusPending, TransactionStatusCompleted,
		TransactionStatusRefunded, TransactionStatusFailed:
		return true
	}
	return false
}

type Transaction struct {
	ID              int64     `json:"id"`
	ClientID        int64     `json:"clientId"`
	InvoiceID       *int64    `json:"invoiceId,omitempty"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	TransactionDate time.Time `json:"transactionDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

type TransactionStore struct {
	db dbinterface.TxBeginner
}

func NewTransactionStore(db dbinterface.TxBeginner) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create records a payment transaction. When the transaction references an
// invoice, the invoice is marked paid in the same database transaction: both
// writes commit or neither does. The invoice is marked paid for every
// transaction status, including failed and pending; downstream billing
// depends on this, do not change it here.
func (s *TransactionStore) Create(ctx context.Context, txn *Transaction) (*Transaction, error) {
	if txn.ClientID == 0 {
		return nil, NewValidationError("clientId", "is required")
	}
	if txn.Amount < 0 {
		return nil, NewValidationError("amount", "must not be negative")
	}
	if txn.Status == "" {
		txn.Status = TransactionStatusPending
	}
	if !validTransactionStatus(txn.Status) {
		return nil, NewValidationError("status", "must be pending, completed, refunded or failed")
	}
	if txn.TransactionDate.IsZero() {
		txn.TransactionDate = time.Now().UTC()
	}

	txn.CreatedAt = time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO transactions (client_id, invoice_id, amount, status, transaction_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		txn.ClientID, txn.InvoiceID, txn.Amount, txn.Status, txn.TransactionDate, txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	if txn.InvoiceID != nil {
		result, err := tx.ExecContext(ctx,
			`UPDATE invoices SET is_paid = ?, updated_at = ? WHERE id = ?`,
			true, time.Now().UTC(), *txn.InvoiceID)
		if err != nil {
			return nil, fmt.Errorf("mark invoice paid: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		if rows == 0 {
			return nil, ErrInvoiceNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return txn, nil
}

const transactionColumns = `id, client_id, invoice_id, amount, status, transaction_date, created_at`

func scanTransactionRow(scan func(dest ...any) error) (*Transaction, error) {
	txn := &Transaction{}
	var invoiceID sql.NullInt64
	err := scan(
		&txn.ID,
		&txn.ClientID,
		&invoiceID,
		&txn.Amount,
		&txn.Status,
		&txn.TransactionDate,
		&txn.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if invoiceID.Valid {
		txn.InvoiceID = &invoiceID.Int64
	}
	return txn, nil
}

func (s *TransactionStore) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	return scanTransactionRow(row.Scan)
}

func (s *TransactionStore) collect(rows *sql.Rows) ([]*Transaction, error) {
	defer rows.Close()

	var txns []*Transaction
	for rows.Next() {
		txn, err := scanTransactionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

func (s *TransactionStore) List(ctx context.Context) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *TransactionStore) ListByClient(ctx context.Context, clientID int64) ([]*Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE client_id = ? ORDER BY id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

// MonthlyRevenue sums completed transactions inside the calendar month
// containing now.
func (s *TransactionStore) MonthlyRevenue(ctx context.Context, now time.Time) (float64, error) {
	now = now.UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var revenue sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount)
		FROM transactions
		WHERE status = ? AND transaction_date >= ? AND transaction_date < ?`,
		TransactionStatusCompleted, monthStart, nextMonth).Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return revenue.Float64, nil
}
