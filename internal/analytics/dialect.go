// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"fmt"
	"strings"
)

// Dialect renders the date transforms used by temporal dimensions.
type Dialect interface {
	Name() string
	// Day truncates a timestamp column to its calendar date.
	Day(field string) string
	// Month renders a "YYYY-MM" string.
	Month(field string) string
	// Year renders a "YYYY" string.
	Year(field string) string
}

// templateDialect substitutes the field for {} in each template.
type templateDialect struct {
	name  string
	day   string
	month string
	year  string
}

func (d templateDialect) Name() string { return d.name }

func (d templateDialect) Day(field string) string {
	return strings.ReplaceAll(d.day, "{}", field)
}

func (d templateDialect) Month(field string) string {
	return strings.ReplaceAll(d.month, "{}", field)
}

func (d templateDialect) Year(field string) string {
	return strings.ReplaceAll(d.year, "{}", field)
}

var (
	// SQLite matches Cloudflare D1 and SQLite.
	SQLite Dialect = templateDialect{
		name:  "sqlite",
		day:   "DATE({})",
		month: "strftime('%Y-%m', {})",
		year:  "strftime('%Y', {})",
	}

	// DuckDB is the embedded analytics store.
	DuckDB Dialect = templateDialect{
		name:  "duckdb",
		day:   "CAST({} AS DATE)",
		month: "strftime({}, '%Y-%m')",
		year:  "strftime({}, '%Y')",
	}

	// MySQL covers MySQL and MariaDB.
	MySQL Dialect = templateDialect{
		name:  "mysql",
		day:   "DATE({})",
		month: "DATE_FORMAT({}, '%Y-%m')",
		year:  "DATE_FORMAT({}, '%Y')",
	}
)

// DialectByName resolves a configured dialect name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "d1":
		return SQLite, nil
	case "duckdb", "":
		return DuckDB, nil
	case "mysql", "mariadb":
		return MySQL, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}
