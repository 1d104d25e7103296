// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package auth covers password hashing and the account lifecycle: first-run
// setup, login, user creation and password changes.
package auth

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotSetup           = errors.New("setup not complete")
	ErrAlreadySetup       = errors.New("setup already completed")
)

const minPasswordLength = 8

type Service struct {
	users *models.UserStore
}

func NewService(users *models.UserStore) *Service {
	return &Service{users: users}
}

// IsSetupComplete reports whether any user account exists yet.
func (s *Service) IsSetupComplete(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return count > 0, nil
}

// SetupUser creates the first account, always as an administrator. Once any
// user exists further accounts go through CreateUser.
func (s *Service) SetupUser(ctx context.Context, username, email, password string) (*models.User, error) {
	complete, err := s.IsSetupComplete(ctx)
	if err != nil {
		return nil, err
	}
	if complete {
		return nil, ErrAlreadySetup
	}

	user, err := s.createUser(ctx, username, email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	log.Info().Str("username", user.Username).Msg("initial admin account created")
	return user, nil
}

// CreateUser creates an account with the given role.
func (s *Service) CreateUser(ctx context.Context, username, email, password string, role domain.Role) (*models.User, error) {
	return s.createUser(ctx, username, email, password, role)
}

func (s *Service) createUser(ctx context.Context, username, email, password string, role domain.Role) (*models.User, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(ctx, username, email, hash, role)
}

// Login verifies the credentials and returns the account. Unknown usernames
// and bad passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	complete, err := s.IsSetupComplete(ctx)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrNotSetup
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	valid, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ChangePassword rotates a user's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("new password must be at least %d characters", minPasswordLength)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info().Str("username", user.Username).Msg("password changed")
	return nil
}
