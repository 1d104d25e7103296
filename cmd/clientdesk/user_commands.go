// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/config"
	"github.com/clientdesk/clientdesk/internal/database"
	"github.com/clientdesk/clientdesk/internal/domain"
	"github.com/clientdesk/clientdesk/internal/models"
)

func RunCreateUserCommand() *cobra.Command {
	var (
		configDir string
		username  string
		email     string
		password  string
		roleName  string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}

			role, err := domain.ParseRole(roleName)
			if err != nil {
				return err
			}

			db, err := openForCommand(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			userStore := models.NewUserStore(db)

			if _, err := userStore.GetByUsername(ctx, username); err == nil {
				cmd.Println("User account already exists, skipping creation")
				return nil
			} else if !errors.Is(err, models.ErrUserNotFound) {
				return fmt.Errorf("failed to look up user: %w", err)
			}

			authService := auth.NewService(userStore)
			if _, err := authService.CreateUser(ctx, username, email, password, role); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			cmd.Printf("User '%s' created successfully with role %s\n", username, role)
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Path to the configuration directory or file")
	cmd.Flags().StringVar(&username, "username", "", "Username for the account")
	cmd.Flags().StringVar(&email, "email", "", "Email address for the account")
	cmd.Flags().StringVar(&password, "password", "", "Password for the account")
	cmd.Flags().StringVar(&roleName, "role", "admin", "Role for the account (admin, sales, support, client)")

	return cmd
}

func RunChangePasswordCommand() *cobra.Command {
	var (
		configDir   string
		username    string
		newPassword string
	)

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Change a user's password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" || newPassword == "" {
				return errors.New("--username and --new-password are required")
			}

			db, err := openForCommand(configDir)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			userStore := models.NewUserStore(db)

			user, err := userStore.GetByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("failed to look up user: %w", err)
			}

			hash, err := auth.HashPassword(newPassword)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			if err := userStore.UpdatePassword(ctx, user.ID, hash); err != nil {
				return fmt.Errorf("failed to update password: %w", err)
			}

			cmd.Println("Password changed successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Path to the configuration directory or file")
	cmd.Flags().StringVar(&username, "username", "", "Username of the account")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "New password for the account")

	return cmd
}

// openForCommand loads the config and opens the database for one-shot
// commands.
func openForCommand(configDir string) (*database.DB, error) {
	cfg, err := config.New(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.OpenFromConfig(cfg.Config, cfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}
