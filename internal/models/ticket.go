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

// Ticket status values.
const (
	TicketStatusNew        = "new"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

type Ticket struct {
	ID         int64      `json:"id"`
	ClientID   int64      `json:"clientId"`
	AssignedTo *int64     `json:"assignedTo,omitempty"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

type TicketStore struct {
	db dbinterface.Querier
}

func NewTicketStore(db dbinterface.Querier) *TicketStore {
	return &TicketStore{db: db}
}

func (s *TicketStore) Create(ctx context.Context, ticket *Ticket) (*Ticket, error) {
	ticket.Subject = strings.TrimSpace(ticket.Subject)
	if ticket.Subject == "" {
		return nil, NewValidationError("subject", "is required")
	}
	if ticket.ClientID == 0 {
		return nil, NewValidationError("clientId", "is required")
	}

	now := time.Now().UTC()
	ticket.Status = TicketStatusNew
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tickets (client_id, assigned_to, subject, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		ticket.ClientID, ticket.AssignedTo, ticket.Subject, ticket.Body, ticket.Status, now, now,
	).Scan(&ticket.ID)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	return ticket, nil
}

const ticketColumns = `id, client_id, assigned_to, subject, body, status, created_at, updated_at, closed_at`

func scanTicketRow(scan func(dest ...any) error) (*Ticket, error) {
	ticket := &Ticket{}
	var assignedTo sql.NullInt64
	var closedAt sql.NullTime
	err := scan(
		&ticket.ID,
		&ticket.ClientID,
		&assignedTo,
		&ticket.Subject,
		&ticket.Body,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&closedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if assignedTo.Valid {
		ticket.AssignedTo = &assignedTo.Int64
	}
	if closedAt.Valid {
		ticket.ClosedAt = &closedAt.Time
	}
	return ticket, nil
}

func (s *TicketStore) Get(ctx context.Context, id int64) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id)
	return scanTicketRow(row.Scan)
}

func (s *TicketStore) collect(rows *sql.Rows) ([]*Ticket, error) {
	defer rows.Close()

	var tickets []*Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (s *TicketStore) List(ctx context.Context) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *TicketStore) ListByClient(ctx context.Context, clientID int64) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE client_id = ? ORDER BY id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

// ListForSupport returns tickets a support user may see: assigned to them or
// not yet assigned to anyone.
func (s *TicketStore) ListForSupport(ctx context.Context, supportUserID int64) ([]*Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE assigned_to = ? OR assigned_to IS NULL ORDER BY id ASC`,
		supportUserID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *TicketStore) Assign(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET assigned_to = ?, status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		userID, TicketStatusInProgress, time.Now().UTC(), id, TicketStatusNew, TicketStatusInProgress)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// Resolve is the explicit transition that closes out a ticket: closed_at is
// stamped here rather than left to callers patching fields by convention.
func (s *TicketStore) Resolve(ctx context.Context, id int64) (*Ticket, error) {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tickets SET status = ?, closed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)`,
		TicketStatusResolved, now, now, id, TicketStatusNew, TicketStatusInProgress)
	if err != nil {
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		ticket, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &InvalidTransitionError{
			Entity:    "ticket",
			Current:   ticket.Status,
			Attempted: TicketStatusResolved,
		}
	}

	return s.Get(ctx, id)
}

// CountOpen counts tickets in new or in_progress, for the dashboard.
func (s *TicketStore) CountOpen(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE status IN (?, ?)`,
		TicketStatusNew, TicketStatusInProgress).Scan(&count)
	return count, err
}
