// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avast/retry-go"

	"github.com/clientdesk/clientdesk/internal/dbinterface"
	"github.com/clientdesk/clientdesk/internal/keygen"
)

// License status values. Revoked is terminal; expired is treated as terminal
// as well (whether operators eventually want an explicit reactivation path
// after late payment is an open product question, so no such transition
// exists here).
const (
	LicenseStatusPending = "pending"
	LicenseStatusActive  = "active"
	LicenseStatusExpired = "expired"
	LicenseStatusRevoked = "revoked"
)

type License struct {
	ID                int64      `json:"id"`
	SubscriptionID    int64      `json:"subscriptionId"`
	LicenseKey        string     `json:"licenseKey"`
	Status            string     `json:"status"`
	ActivationDate    *time.Time `json:"activationDate,omitempty"`
	ExpirationDate    time.Time  `json:"expirationDate"`
	LastChecked       *time.Time `json:"lastChecked,omitempty"`
	NotificationsSent int        `json:"notificationsSent"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// ExpiringLicense is the alert record handed to the notification dispatcher
// for licenses inside the expiration warning window.
type ExpiringLicense struct {
	LicenseID         int64     `json:"licenseId"`
	LicenseKey        string    `json:"licenseKey"`
	SubscriptionID    int64     `json:"subscriptionId"`
	ClientID          int64     `json:"clientId"`
	ClientUserID      int64     `json:"-"`
	CompanyName       string    `json:"companyName"`
	ExpirationDate    time.Time `json:"expirationDate"`
	ExpiresIn         int       `json:"expiresIn"`
	NotificationsSent int       `json:"-"`
}

type LicenseStore struct {
	db dbinterface.Querier
}

func NewLicenseStore(db dbinterface.Querier) *LicenseStore {
	return &LicenseStore{db: db}
}

// Create inserts a license under a subscription. When key is empty a key is
// generated; uniqueness is optimistic, verified by the unique index on
// insert, with one regeneration attempt before the conflict surfaces.
func (s *LicenseStore) Create(ctx context.Context, subscriptionID int64, key string, expirationDate time.Time) (*License, error) {
	if subscriptionID == 0 {
		return nil, NewValidationError("subscriptionId", "is required")
	}
	if expirationDate.IsZero() {
		return nil, NewValidationError("expirationDate", "is required")
	}

	generated := key == ""
	lastKey := key

	var license *License
	err := retry.Do(
		func() error {
			insertKey := key
			if generated {
				var genErr error
				insertKey, genErr = keygen.GenerateLicenseKey(time.Now().UTC())
				if genErr != nil {
					return retry.Unrecoverable(genErr)
				}
			}
			lastKey = insertKey

			inserted, insertErr := s.insert(ctx, subscriptionID, insertKey, expirationDate)
			if insertErr != nil {
				// A supplied key cannot be regenerated, so its conflict is final.
				if isUniqueConstraintError(insertErr) && generated {
					return insertErr
				}
				return retry.Unrecoverable(insertErr)
			}

			license = inserted
			return nil
		},
		retry.Attempts(2),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &ConflictError{Resource: "license", Key: lastKey}
		}
		if isForeignKeyConstraintError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	return license, nil
}

func (s *LicenseStore) insert(ctx context.Context, subscriptionID int64, key string, expirationDate time.Time) (*License, error) {
	now := time.Now().UTC()
	license := &License{
		SubscriptionID: subscriptionID,
		LicenseKey:     key,
		Status:         LicenseStatusPending,
		ExpirationDate: expirationDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO licenses (subscription_id, license_key, status, expiration_date, notifications_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
		RETURNING id`,
		subscriptionID, key, LicenseStatusPending, expirationDate, now, now,
	).Scan(&license.ID)
	if err != nil {
		return nil, err
	}

	return license, nil
}

const licenseColumns = `id, subscription_id, license_key, status, activation_date, expiration_date, last_checked, notifications_sent, created_at, updated_at`

func scanLicenseRow(scan func(dest ...any) error) (*License, error) {
	license := &License{}
	var activation, lastChecked sql.NullTime
	err := scan(
		&license.ID,
		&license.SubscriptionID,
		&license.LicenseKey,
		&license.Status,
		&activation,
		&license.ExpirationDate,
		&lastChecked,
		&license.NotificationsSent,
		&license.CreatedAt,
		&license.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLicenseNotFound
		}
		return nil, err
	}
	if activation.Valid {
		license.ActivationDate = &activation.Time
	}
	if lastChecked.Valid {
		license.LastChecked = &lastChecked.Time
	}
	return license, nil
}

func (s *LicenseStore) Get(ctx context.Context, id int64) (*License, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id = ?`, id)
	return scanLicenseRow(row.Scan)
}

func (s *LicenseStore) GetByKey(ctx context.Context, key string) (*License, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE license_key = ?`, key)
	return scanLicenseRow(row.Scan)
}

func (s *LicenseStore) collect(rows *sql.Rows) ([]*License, error) {
	defer rows.Close()

	var licenses []*License
	for rows.Next() {
		license, err := scanLicenseRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		licenses = append(licenses, license)
	}
	return licenses, rows.Err()
}

func (s *LicenseStore) List(ctx context.Context) ([]*License, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+licenseColumns+` FROM licenses ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *LicenseStore) ListBySubscription(ctx context.Context, subscriptionID int64) ([]*License, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+licenseColumns+` FROM licenses WHERE subscription_id = ? ORDER BY id ASC`, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

func (s *LicenseStore) ListByClient(ctx context.Context, clientID int64) ([]*License, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.subscription_id, l.license_key, l.status, l.activation_date, l.expiration_date,
		       l.last_checked, l.notifications_sent, l.created_at, l.updated_at
		FROM licenses l
		JOIN subscriptions s ON s.id = l.subscription_id
		WHERE s.client_id = ?
		ORDER BY l.id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	return s.collect(rows)
}

// OwnerClientID resolves which client owns a license, for access checks.
func (s *LicenseStore) OwnerClientID(ctx context.Context, licenseID int64) (int64, error) {
	var clientID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT s.client_id
		FROM licenses l
		JOIN subscriptions s ON s.id = l.subscription_id
		WHERE l.id = ?`, licenseID).Scan(&clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrLicenseNotFound
		}
		return 0, err
	}
	return clientID, nil
}

// transition performs a single-row, status-guarded update. It reports whether
// the row actually moved; a false return with no error means the license was
// not in the required status at update time.
func (s *LicenseStore) transition(ctx context.Context, query string, args ...any) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Activate moves a pending license to active and stamps the activation date.
func (s *LicenseStore) Activate(ctx context.Context, id int64, activatedAt time.Time) (bool, error) {
	return s.transition(ctx, `
		UPDATE licenses
		SET status = ?, activation_date = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		LicenseStatusActive, activatedAt, time.Now().UTC(), id, LicenseStatusPending)
}

// Revoke moves an active license to revoked. Revoked is terminal.
func (s *LicenseStore) Revoke(ctx context.Context, id int64) (bool, error) {
	return s.transition(ctx, `
		UPDATE licenses
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		LicenseStatusRevoked, time.Now().UTC(), id, LicenseStatusActive)
}

// Renew pushes the expiration date forward and resets the notification
// counter. Only active licenses renew.
func (s *LicenseStore) Renew(ctx context.Context, id int64, newExpiration time.Time) (bool, error) {
	return s.transition(ctx, `
		UPDATE licenses
		SET expiration_date = ?, notifications_sent = 0, updated_at = ?
		WHERE id = ? AND status = ?`,
		newExpiration, time.Now().UTC(), id, LicenseStatusActive)
}

// ExpireOverdue transitions every active license whose expiration date has
// passed into expired, returning how many rows moved. This backs the
// at-least-daily sweep job.
func (s *LicenseStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE licenses
		SET status = ?, updated_at = ?
		WHERE status = ? AND expiration_date < ?`,
		LicenseStatusExpired, now.UTC(), LicenseStatusActive, now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListExpiring returns the alert records for active licenses whose expiration
// falls within [now, now+days]. It is a pure query and mutates nothing.
func (s *LicenseStore) ListExpiring(ctx context.Context, now time.Time, days int) ([]*ExpiringLicense, error) {
	cutoff := now.UTC().AddDate(0, 0, days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.license_key, l.subscription_id, s.client_id, c.user_id, c.company_name,
		       l.expiration_date, l.notifications_sent
		FROM licenses l
		JOIN subscriptions s ON s.id = l.subscription_id
		JOIN clients c ON c.id = s.client_id
		WHERE l.status = ? AND l.expiration_date >= ? AND l.expiration_date <= ?
		ORDER BY l.expiration_date ASC`,
		LicenseStatusActive, now.UTC(), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expiring []*ExpiringLicense
	for rows.Next() {
		e := &ExpiringLicense{}
		if err := rows.Scan(
			&e.LicenseID,
			&e.LicenseKey,
			&e.SubscriptionID,
			&e.ClientID,
			&e.ClientUserID,
			&e.CompanyName,
			&e.ExpirationDate,
			&e.NotificationsSent,
		); err != nil {
			return nil, err
		}
		e.ExpiresIn = int(e.ExpirationDate.Sub(now.UTC()).Hours() / 24)
		expiring = append(expiring, e)
	}

	return expiring, rows.Err()
}

// MarkAlerted bumps the notification counter only if it still holds the value
// the caller read, making alert dispatch idempotent under retries and
// concurrent sweeps.
func (s *LicenseStore) MarkAlerted(ctx context.Context, id int64, previousCount int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE licenses
		SET notifications_sent = notifications_sent + 1, updated_at = ?
		WHERE id = ? AND notifications_sent = ? AND status = ?`,
		time.Now().UTC(), id, previousCount, LicenseStatusActive)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// TouchLastChecked records when a license was last validated.
func (s *LicenseStore) TouchLastChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE licenses SET last_checked = ? WHERE id = ?`, checkedAt.UTC(), id)
	return err
}

// CountActive backs the dashboard.
func (s *LicenseStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM licenses WHERE status = ?`, LicenseStatusActive).Scan(&count)
	return count, err
}
