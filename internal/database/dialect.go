// Copyright (c) 2026, the clientdesk contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"fmt"
	"strconv"
	"strings"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) String() string {
	return string(d)
}

func parseDialect(raw string) (Dialect, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "", string(DialectSQLite):
		return DialectSQLite, nil
	case string(DialectPostgres), "postgresql":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database engine %q", raw)
	}
}

func (db *DB) Dialect() Dialect {
	if db == nil || db.dialect == "" {
		return DialectSQLite
	}
	return db.dialect
}

func (db *DB) bindQuery(query string) string {
	if db == nil || db.dialect != DialectPostgres {
		return query
	}
	return rebindQuestionToDollar(query)
}

// rebindQuestionToDollar converts ? placeholders to $1..$n for Postgres.
// Question marks inside single-quoted string literals and SQL comments are
// left untouched.
func rebindQuestionToDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var (
		out           strings.Builder
		param         int
		inSingleQuote bool
		inLineComment bool
	)
	out.Grow(len(query) + 16)

	for i := 0; i < len(query); i++ {
		ch := query[i]

		switch {
		case inLineComment:
			out.WriteByte(ch)
			if ch == '\n' {
				inLineComment = false
			}
		case inSingleQuote:
			out.WriteByte(ch)
			if ch == '\'' {
				// '' escapes a quote inside a string literal
				if i+1 < len(query) && query[i+1] == '\'' {
					out.WriteByte('\'')
					i++
				} else {
					inSingleQuote = false
				}
			}
		case ch == '\'':
			inSingleQuote = true
			out.WriteByte(ch)
		case ch == '-' && i+1 < len(query) && query[i+1] == '-':
			inLineComment = true
			out.WriteString("--")
			i++
		case ch == '?':
			param++
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(param))
		default:
			out.WriteByte(ch)
		}
	}

	return out.String()
}
