// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationTableOrder lists every data table in foreign-key dependency order,
// so rows can be imported without deferring constraints. schema_migrations is
// excluded; the postgres schema is bootstrapped from its own migration files.
var migrationTableOrder = []string{
	"users",
	"clients",
	"products",
	"subscriptions",
	"licenses",
	"invoices",
	"invoice_sequences",
	"transactions",
	"tickets",
	"notifications",
	"sessions",
}

type SQLiteToPostgresMigrationOptions struct {
	SQLitePath  string
	PostgresDSN string
	Apply       bool
}

type TableMigrationResult struct {
	Table        string
	SQLiteRows   int64
	PostgresRows int64
}

type SQLiteToPostgresMigrationReport struct {
	Applied               bool
	Tables                []TableMigrationResult
	MissingPostgresTables []string
}

// MigrateSQLiteToPostgres copies all rows of a sqlite database into a
// postgres one. Without Apply it only reports the row counts on both sides.
// With Apply the postgres schema is bootstrapped, all tables are truncated
// and reloaded in a single transaction, and identity sequences are reset.
func MigrateSQLiteToPostgres(ctx context.Context, opts SQLiteToPostgresMigrationOptions) (*SQLiteToPostgresMigrationReport, error) {
	sqlitePath := strings.TrimSpace(opts.SQLitePath)
	pgDSN := strings.TrimSpace(opts.PostgresDSN)
	if sqlitePath == "" {
		return nil, errors.New("sqlite path is required")
	}
	if pgDSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if _, err := os.Stat(sqlitePath); err != nil {
		return nil, fmt.Errorf("stat sqlite file: %w", err)
	}

	sqliteDB, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sqlitePath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	defer sqliteDB.Close()

	tables, err := presentSQLiteTables(ctx, sqliteDB)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, errors.New("sqlite database has no importable tables")
	}

	sqliteCounts, err := countRows(ctx, sqliteDB, tables)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if !opts.Apply {
		return buildDryRunReport(ctx, pool, tables, sqliteCounts)
	}

	bootstrapDB, err := Open(OpenOptions{
		Engine:      string(DialectPostgres),
		PostgresDSN: pgDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap postgres schema: %w", err)
	}
	if closeErr := bootstrapDB.Close(); closeErr != nil {
		return nil, fmt.Errorf("close bootstrap postgres connection: %w", closeErr)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin postgres import transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	// Serialize concurrent imports against the same database.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(726338100517101)"); err != nil {
		return nil, fmt.Errorf("acquire postgres import lock: %w", err)
	}

	if err := truncatePostgresTables(ctx, tx, tables); err != nil {
		return nil, err
	}

	report := &SQLiteToPostgresMigrationReport{
		Applied: true,
		Tables:  make([]TableMigrationResult, 0, len(tables)),
	}

	for _, table := range tables {
		copied, err := copyTable(ctx, sqliteDB, tx, table)
		if err != nil {
			return nil, fmt.Errorf("copy table %s: %w", table, err)
		}

		var pgRows int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&pgRows); err != nil {
			return nil, fmt.Errorf("count postgres rows for %s: %w", table, err)
		}

		report.Tables = append(report.Tables, TableMigrationResult{
			Table:        table,
			SQLiteRows:   sqliteCounts[table],
			PostgresRows: pgRows,
		})

		if sqliteCounts[table] != pgRows || copied != pgRows {
			return nil, fmt.Errorf("row count mismatch for table %s: sqlite=%d copied=%d postgres=%d",
				table, sqliteCounts[table], copied, pgRows)
		}
	}

	if err := resetIdentities(ctx, tx, tables); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit postgres import: %w", err)
	}
	committed = true

	return report, nil
}

// presentSQLiteTables filters migrationTableOrder down to the tables that
// actually exist in the source file, preserving dependency order.
func presentSQLiteTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	`)
	if err != nil {
		return nil, fmt.Errorf("list sqlite tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan sqlite table name: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sqlite tables: %w", err)
	}

	var tables []string
	for _, table := range migrationTableOrder {
		if _, ok := present[table]; ok {
			tables = append(tables, table)
		}
	}
	return tables, nil
}

func countRows(ctx context.Context, db *sql.DB, tables []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&count); err != nil {
			return nil, fmt.Errorf("count sqlite rows for %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}

func buildDryRunReport(ctx context.Context, pool *pgxpool.Pool, tables []string, sqliteCounts map[string]int64) (*SQLiteToPostgresMigrationReport, error) {
	rows, err := pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
	`)
	if err != nil {
		return nil, fmt.Errorf("list postgres tables: %w", err)
	}
	defer rows.Close()

	pgTables := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan postgres table name: %w", err)
		}
		pgTables[name] = struct{}{}
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate postgres table names: %w", rows.Err())
	}

	report := &SQLiteToPostgresMigrationReport{
		Tables: make([]TableMigrationResult, 0, len(tables)),
	}

	for _, table := range tables {
		pgRows := int64(0)
		if _, ok := pgTables[table]; ok {
			if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+quoteIdent(table)).Scan(&pgRows); err != nil {
				return nil, fmt.Errorf("count postgres rows for %s: %w", table, err)
			}
		} else {
			report.MissingPostgresTables = append(report.MissingPostgresTables, table)
		}

		report.Tables = append(report.Tables, TableMigrationResult{
			Table:        table,
			SQLiteRows:   sqliteCounts[table],
			PostgresRows: pgRows,
		})
	}

	return report, nil
}

func truncatePostgresTables(ctx context.Context, tx pgx.Tx, tables []string) error {
	if len(tables) == 0 {
		return nil
	}

	quoted := make([]string, 0, len(tables))
	for _, table := range tables {
		quoted = append(quoted, quoteIdent(table))
	}

	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(quoted, ", "))
	if _, err := tx.Exec(ctx, query); err != nil {
		return fmt.Errorf("truncate postgres tables: %w", err)
	}
	return nil
}

func copyTable(ctx context.Context, sqliteDB *sql.DB, tx pgx.Tx, table string) (int64, error) {
	columns, sqliteTypes, err := sqliteTableColumns(ctx, sqliteDB, table)
	if err != nil {
		return 0, err
	}
	if len(columns) == 0 {
		return 0, nil
	}

	quoted := make([]string, 0, len(columns))
	for _, column := range columns {
		quoted = append(quoted, quoteIdent(column))
	}

	// #nosec G201 -- identifiers come from sqlite schema metadata and are quoted.
	selectQuery := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(table))
	rows, err := sqliteDB.QueryContext(ctx, selectQuery)
	if err != nil {
		return 0, fmt.Errorf("query sqlite table %s: %w", table, err)
	}
	defer rows.Close()

	const batchSize = 1_000
	batch := make([][]any, 0, batchSize)
	copied := int64(0)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(batch))
		if err != nil {
			return fmt.Errorf("copy batch for table %s: %w", table, err)
		}
		copied += n
		batch = batch[:0]
		return nil
	}

	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return 0, fmt.Errorf("scan sqlite row for %s: %w", table, err)
		}

		row := make([]any, len(raw))
		for i := range raw {
			row[i] = normalizeSQLiteValue(raw[i], sqliteTypes[i])
		}
		batch = append(batch, row)

		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate sqlite rows for %s: %w", table, err)
	}

	if err := flush(); err != nil {
		return 0, err
	}

	return copied, nil
}

func sqliteTableColumns(ctx context.Context, db *sql.DB, table string) ([]string, []string, error) {
	query := fmt.Sprintf(`PRAGMA table_info(%s)`, quoteSQLiteString(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("list sqlite columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns, types []string
	for rows.Next() {
		var (
			cid      int
			name     string
			colType  string
			notNull  int
			defaultV any
			primaryK int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultV, &primaryK); err != nil {
			return nil, nil, fmt.Errorf("scan sqlite column for %s: %w", table, err)
		}
		columns = append(columns, name)
		types = append(types, strings.ToUpper(strings.TrimSpace(colType)))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate sqlite columns for %s: %w", table, err)
	}

	return columns, types, nil
}

// normalizeSQLiteValue maps the loosely typed sqlite values onto what pgx
// expects for the postgres column. Text arrives from sqlite as []byte.
func normalizeSQLiteValue(v any, sqliteType string) any {
	if v == nil {
		return nil
	}

	switch value := v.(type) {
	case bool:
		if value {
			return int64(1)
		}
		return int64(0)
	case []byte:
		if strings.Contains(sqliteType, "BLOB") || strings.Contains(sqliteType, "BYTEA") {
			buf := make([]byte, len(value))
			copy(buf, value)
			return buf
		}
		return string(value)
	default:
		return value
	}
}

func resetIdentities(ctx context.Context, tx pgx.Tx, tables []string) error {
	for _, table := range tables {
		query := fmt.Sprintf(`
			SELECT setval(
				pg_get_serial_sequence($1, 'id'),
				COALESCE((SELECT MAX(id) FROM %s), 0) + 1,
				false
			)
		`, quoteIdent(table))

		var hasIdentity bool
		err := tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.columns
				WHERE table_schema = 'public'
				  AND table_name = $1
				  AND column_name = 'id'
				  AND is_identity = 'YES'
			)
		`, table).Scan(&hasIdentity)
		if err != nil {
			return fmt.Errorf("check identity column for %s: %w", table, err)
		}
		if !hasIdentity {
			continue
		}

		if _, err := tx.Exec(ctx, query, "public."+table); err != nil {
			return fmt.Errorf("reset identity for %s: %w", table, err)
		}
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteSQLiteString(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
