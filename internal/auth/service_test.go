// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
	"github.com/clientdesk/clientdesk/internal/testdb"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testdb.Open(t, "auth")
	return NewService(models.NewUserStore(db))
}

func TestService_SetupUser(t *testing.T) {
	t.Parallel()

	t.Run("creates initial admin", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		user, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
		assert.Equal(t, domain.RoleAdmin, user.Role)
		assert.NotEmpty(t, user.PasswordHash)
	})

	t.Run("refuses second setup", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		_, err = svc.SetupUser(ctx, "other", "other@example.com", "password123")
		assert.ErrorIs(t, err, ErrAlreadySetup)
	})

	t.Run("password too short", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})
}

func TestService_CreateUser(t *testing.T) {
	t.Parallel()

	t.Run("creates user with role", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		user, err := svc.CreateUser(ctx, "sales1", "sales@example.com", "password123", domain.RoleSales)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleSales, user.Role)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		_, err = svc.CreateUser(ctx, "admin", "dup@example.com", "password123", domain.RoleSupport)
		var conflict *models.ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	t.Run("successful login", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		user, err := svc.Login(ctx, "admin", "password123")
		require.NoError(t, err)
		assert.Equal(t, "admin", user.Username)
	})

	t.Run("setup not complete", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.Login(ctx, "admin", "password123")
		assert.ErrorIs(t, err, ErrNotSetup)
	})

	t.Run("invalid username", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "wronguser", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("invalid password", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		_, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "admin", "wrongpassword")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_ChangePassword(t *testing.T) {
	t.Parallel()

	t.Run("successful password change", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		user, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, user.ID, "password123", "newpassword456")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "admin", "newpassword456")
		require.NoError(t, err)

		_, err = svc.Login(ctx, "admin", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong old password", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		user, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, user.ID, "wrongpassword", "newpassword456")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("new password too short", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		svc := newTestService(t)

		user, err := svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
		require.NoError(t, err)

		err = svc.ChangePassword(ctx, user.ID, "password123", "short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 8 characters")
	})
}

func TestService_IsSetupComplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t)

	complete, err := svc.IsSetupComplete(ctx)
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = svc.SetupUser(ctx, "admin", "admin@example.com", "password123")
	require.NoError(t, err)

	complete, err = svc.IsSetupComplete(ctx)
	require.NoError(t, err)
	assert.True(t, complete)
}
