// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
)

// Client is a customer organization. Every client is backed by exactly one
// user account with the client role.
type Client struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ClientStore struct {
	db dbinterface.Querier
}

func NewClientStore(db dbinterface.Querier) *ClientStore {
	return &ClientStore{db: db}
}

func (s *ClientStore) Create(ctx context.Context, client *Client) (*Client, error) {
	client.CompanyName = strings.TrimSpace(client.CompanyName)
	if client.CompanyName == "" {
		return nil, NewValidationError("companyName", "is required")
	}
	if client.UserID == 0 {
		return nil, NewValidationError("userId", "is required")
	}

	now := time.Now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	query := `
		INSERT INTO clients (user_id, company_name, contact_name, email, phone, address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := s.db.QueryRowContext(ctx, query,
		client.UserID, client.CompanyName, client.ContactName,
		client.Email, client.Phone, client.Address, now, now,
	).Scan(&client.ID)
	if err != nil {
		switch {
		case isUniqueConstraintError(err):
			return nil, NewValidationError("userId", "already backs another client")
		case isForeignKeyConstraintError(err):
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return client, nil
}

const clientColumns = `id, user_id, company_name, contact_name, email, phone, address, created_at, updated_at`

func scanClientRow(scan func(dest ...any) error) (*Client, error) {
	client := &Client{}
	err := scan(
		&client.ID,
		&client.UserID,
		&client.CompanyName,
		&client.ContactName,
		&client.Email,
		&client.Phone,
		&client.Address,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

func (s *ClientStore) Get(ctx context.Context, id int64) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	return scanClientRow(row.Scan)
}

// GetByUserID resolves the client record backing a user account.
func (s *ClientStore) GetByUserID(ctx context.Context, userID int64) (*Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE user_id = ?`, userID)
	return scanClientRow(row.Scan)
}

func (s *ClientStore) List(ctx context.Context) ([]*Client, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY company_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		client, err := scanClientRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

func (s *ClientStore) Update(ctx context.Context, client *Client) (*Client, error) {
	client.CompanyName = strings.TrimSpace(client.CompanyName)
	if client.CompanyName == "" {
		return nil, NewValidationError("companyName", "is required")
	}

	client.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE clients
		SET company_name = ?, contact_name = ?, email = ?, phone = ?, address = ?, updated_at = ?
		WHERE id = ?`,
		client.CompanyName, client.ContactName, client.Email,
		client.Phone, client.Address, client.UpdatedAt, client.ID)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrClientNotFound
	}

	return client, nil
}

func (s *ClientStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (s *ClientStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&count)
	return count, err
}
