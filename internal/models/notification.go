// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"time"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
)

// Notification type values.
const (
	NotificationTypeLicenseExpiring = "license_expiring"
	NotificationTypeTicketUpdate    = "ticket_update"
	NotificationTypeInvoiceIssued   = "invoice_issued"
)

type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	RelatedID *int64    `json:"relatedId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationStore struct {
	db dbinterface.Querier
}

func NewNotificationStore(db dbinterface.Querier) *NotificationStore {
	return &NotificationStore{db: db}
}

func (s *NotificationStore) Create(ctx context.Context, notification *Notification) (*Notification, error) {
	if notification.UserID == 0 {
		return nil, NewValidationError("userId", "is required")
	}
	if notification.Type == "" {
		return nil, NewValidationError("type", "is required")
	}

	notification.CreatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, type, message, related_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		notification.UserID, notification.Type, notification.Message,
		notification.RelatedID, notification.IsRead, notification.CreatedAt,
	).Scan(&notification.ID)
	if err != nil {
		if isForeignKeyConstraintError(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return notification, nil
}

func (s *NotificationStore) ListByUser(ctx context.Context, userID int64) ([]*Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, message, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		var relatedID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &relatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if relatedID.Valid {
			n.RelatedID = &relatedID.Int64
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkRead marks one notification read, scoped to its owner.
func (s *NotificationStore) MarkRead(ctx context.Context, id, userID int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE id = ? AND user_id = ?`,
		true, id, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE user_id = ? AND is_read = ?`,
		true, userID, false)
	return err
}
