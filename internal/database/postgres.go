// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	// Register pgx as database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
)

func newPostgres(dsn string, opts OpenOptions) (*DB, error) {
	log.Info().Msg("Initializing postgres database")

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	maxOpenConns := opts.MaxOpenConns
	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	maxIdleConns := opts.MaxIdleConns
	if maxIdleConns <= 0 {
		maxIdleConns = 5
	}
	connMaxLifetime := opts.ConnMaxLifetime
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}

	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), connectionSetupTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &DB{conn: conn, dialect: DialectPostgres}

	if err := db.migrate(postgresMigrationsFS, "postgres_migrations"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run postgres migrations: %w", err)
	}

	log.Info().Msg("Postgres database initialized successfully")

	return db, nil
}
