// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
	"github.com/clientdesk/clientdesk/internal/domain"
)

type Subscription struct {
	ID        int64                   `json:"id"`
	ClientID  int64                   `json:"clientId"`
	ProductID int64                   `json:"productId"`
	Type      domain.SubscriptionType `json:"subscriptionType"`
	StartDate time.Time               `json:"startDate"`
	EndDate   time.Time               `json:"endDate"`
	Price     float64                 `json:"price"`
	AutoRenew bool                    `json:"autoRenew"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

type SubscriptionStore struct {
	db dbinterface.Querier
}

func NewSubscriptionStore(db dbinterface.Querier) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func validateSubscription(sub *Subscription) error {
	if sub.ClientID == 0 {
		return NewValidationError("clientId", "is required")
	}
	if sub.ProductID == 0 {
		return NewValidationError("productId", "is required")
	}
	if _, err := domain.ParseSubscriptionType(sub.Type.String()); err != nil {
		return NewValidationError("subscriptionType", "must be monthly, quarterly or yearly")
	}
	if sub.StartDate.IsZero() || sub.EndDate.IsZero() {
		return NewValidationError("startDate", "startDate and endDate are required")
	}
	if !sub.StartDate.Before(sub.EndDate) {
		return NewValidationError("endDate", "must be after startDate")
	}
	if sub.Price < 0 {
		return NewValidationError("price", "must not be negative")
	}
	return nil
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO subscriptions (client_id, product_id, subscription_type, start_date, end_date, price, auto_renew, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		sub.ClientID, sub.ProductID, sub.Type.String(),
		sub.StartDate, sub.EndDate, sub.Price, sub.AutoRenew, now, now,
	).Scan(&sub.ID)
	if err != nil {
		switch {
		case isForeignKeyConstraintError(err):
			return nil, ErrClientNotFound
		case isCheckConstraintError(err):
			return nil, NewValidationError("endDate", "must be after startDate")
		}
		return nil, err
	}

	return sub, nil
}

const subscriptionColumns = `id, client_id, product_id, subscription_type, start_date, end_date, price, auto_renew, created_at, updated_at`

func scanSubscriptionRow(scan func(dest ...any) error) (*Subscription, error) {
	sub := &Subscription{}
	var subType string
	err := scan(
		&sub.ID,
		&sub.ClientID,
		&sub.ProductID,
		&subType,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Price,
		&sub.AutoRenew,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	sub.Type = domain.SubscriptionType(subType)
	return sub, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id int64) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	return scanSubscriptionRow(row.Scan)
}

func (s *SubscriptionStore) collect(rows *sql.Rows) ([]*Subscription, error) {
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscriptionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SubscriptionStore) List(ctx context.Context) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *SubscriptionStore) ListByClient(ctx context.Context, clientID int64) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE client_id = ? ORDER BY id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

// Update replaces the mutable fields of a subscription. Ownership
// (client_id) and product are fixed at creation.
func (s *SubscriptionStore) Update(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if err := validateSubscription(sub); err != nil {
		return nil, err
	}

	sub.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET subscription_type = ?, start_date = ?, end_date = ?, price = ?, auto_renew = ?, updated_at = ?
		WHERE id = ?`,
		sub.Type.String(), sub.StartDate, sub.EndDate, sub.Price, sub.AutoRenew, sub.UpdatedAt, sub.ID)
	if err != nil {
		if isCheckConstraintError(err) {
			return nil, NewValidationError("endDate", "must be after startDate")
		}
		return nil, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrSubscriptionNotFound
	}

	return sub, nil
}
