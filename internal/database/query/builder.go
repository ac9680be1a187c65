// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package query

import (
	"strings"
	"time"
)

// WhereBuilder constructs SQL WHERE clauses with parameterized arguments.
// Clauses are ANDed in insertion order and arguments are kept in the same
// order as their placeholders.
//
// Example usage:
//
//	wb := query.NewWhereBuilder()
//	wb.AddBetween("contracts.created_at", start, end)
//	wb.AddIn("contracts.status", []interface{}{"active", "draft"}, false)
//	whereClause, args := wb.Build()
//	// contracts.created_at BETWEEN ? AND ? AND contracts.status IN (?, ?)
type WhereBuilder struct {
	clauses []string
	args    []interface{}
}

// NewWhereBuilder creates a new WhereBuilder instance.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{
		clauses: []string{},
		args:    []interface{}{},
	}
}

// AddClause adds a raw WHERE clause with its arguments.
// This is useful for custom conditions not covered by helper methods.
//
// Parameters:
//   - clause: SQL condition fragment (e.g., "contracts.status = ?")
//   - args: Arguments to bind to placeholders in the clause
func (wb *WhereBuilder) AddClause(clause string, args ...interface{}) *WhereBuilder {
	wb.clauses = append(wb.clauses, clause)
	wb.args = append(wb.args, args...)
	return wb
}

// AddComparison adds "column <operator> ?" with a single bound value.
// The operator is emitted verbatim and must come from a closed set.
func (wb *WhereBuilder) AddComparison(column, operator string, value interface{}) *WhereBuilder {
	return wb.AddClause(column+" "+operator+" ?", value)
}

// AddIn adds "column IN (?, ?, ...)" with one placeholder per value, or
// "column NOT IN (...)" when negate is set. An empty value list is skipped.
func (wb *WhereBuilder) AddIn(column string, values []interface{}, negate bool) *WhereBuilder {
	if len(values) == 0 {
		return wb
	}
	keyword := " IN ("
	if negate {
		keyword = " NOT IN ("
	}
	wb.clauses = append(wb.clauses, column+keyword+Placeholders(len(values))+")")
	wb.args = append(wb.args, values...)
	return wb
}

// AddLike adds "column LIKE ?" (or NOT LIKE) binding the pattern as-is.
func (wb *WhereBuilder) AddLike(column, pattern string, negate bool) *WhereBuilder {
	operator := "LIKE"
	if negate {
		operator = "NOT LIKE"
	}
	return wb.AddComparison(column, operator, pattern)
}

// AddBetween adds "column BETWEEN ? AND ?".
func (wb *WhereBuilder) AddBetween(column string, start, end interface{}) *WhereBuilder {
	return wb.AddClause(column+" BETWEEN ? AND ?", start, end)
}

// AddDateRange adds start and/or end bounds on column.
// Nil dates are skipped, allowing open-ended ranges.
//
// Generates:
//   - "column >= ?" if startDate is non-nil
//   - "column <= ?" if endDate is non-nil
func (wb *WhereBuilder) AddDateRange(column string, startDate, endDate *time.Time) *WhereBuilder {
	if startDate != nil {
		wb.AddComparison(column, ">=", *startDate)
	}
	if endDate != nil {
		wb.AddComparison(column, "<=", *endDate)
	}
	return wb
}

// Build constructs the final WHERE clause and returns it with arguments.
// Clauses are joined with "AND". Returns ("1=1", []) if no clauses were added.
//
// Returns:
//   - string: Complete WHERE clause (without "WHERE" keyword)
//   - []interface{}: Arguments to bind to placeholders
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.clauses) == 0 {
		return "1=1", []interface{}{}
	}
	return strings.Join(wb.clauses, " AND "), wb.args
}

// BuildWithPrefix returns the WHERE clause with "WHERE " prefix.
func (wb *WhereBuilder) BuildWithPrefix() (string, []interface{}) {
	whereClause, args := wb.Build()
	return "WHERE " + whereClause, args
}

// Count returns the number of clauses added to the builder.
func (wb *WhereBuilder) Count() int {
	return len(wb.clauses)
}

// IsEmpty returns true if no clauses have been added.
func (wb *WhereBuilder) IsEmpty() bool {
	return len(wb.clauses) == 0
}

// Placeholders returns n comma-separated "?" markers ("?, ?, ?").
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
