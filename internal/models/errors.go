// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrLicenseNotFound      = errors.New("license not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError reports a malformed or missing field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError reports an attempted lifecycle transition that the
// state machine does not allow, carrying both states for the API response.
type InvalidTransitionError struct {
	Entity    string `json:"entity"`
	Current   string `json:"current"`
	Attempted string `json:"attempted"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.Current, e.Attempted)
}

// ConflictError reports a unique-key collision that survived the bounded
// regeneration retry.
type ConflictError struct {
	Resource string
	Key      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.Key)
}
