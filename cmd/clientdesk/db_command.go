// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/clientdesk/clientdesk/internal/database"
)

func RunDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database operations",
	}

	cmd.AddCommand(runDBMigrateCommand())
	return cmd
}

func runDBMigrateCommand() *cobra.Command {
	var (
		fromSQLite string
		toPostgres string
		dryRun     bool
		apply      bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Offline one-shot SQLite to Postgres migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromSQLite == "" {
				return errors.New("--from-sqlite is required")
			}
			if toPostgres == "" {
				return errors.New("--to-postgres is required")
			}
			if dryRun == apply {
				return errors.New("set exactly one of --dry-run or --apply")
			}

			report, err := database.MigrateSQLiteToPostgres(cmd.Context(), database.SQLiteToPostgresMigrationOptions{
				SQLitePath:  fromSQLite,
				PostgresDSN: toPostgres,
				Apply:       apply,
			})
			if err != nil {
				return err
			}

			mode := "dry-run"
			if apply {
				mode = "apply"
			}

			cmd.Printf("SQLite -> Postgres migration (%s)\n", mode)
			for _, table := range report.Tables {
				cmd.Printf("  %-20s sqlite=%-8d postgres=%d\n", table.Table, table.SQLiteRows, table.PostgresRows)
			}
			if len(report.MissingPostgresTables) > 0 {
				cmd.Printf("Missing postgres tables: %v\n", report.MissingPostgresTables)
				cmd.Println("Run with --apply to bootstrap the schema and import data.")
			}
			if report.Applied {
				cmd.Println("Import committed.")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&fromSQLite, "from-sqlite", "", "Path to the source sqlite database file")
	cmd.Flags().StringVar(&toPostgres, "to-postgres", "", "Postgres DSN of the target database")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report row counts without importing")
	cmd.Flags().BoolVar(&apply, "apply", false, "Truncate target tables and import data")

	return cmd
}
