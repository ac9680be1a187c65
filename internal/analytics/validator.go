// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import "strings"

// FieldValidator is an optional compile-time check on field references.
// Without one the compiler passes field names through to the executor.
type FieldValidator interface {
	ValidateField(field string) error
}

// AllowList accepts only table.column pairs declared in its schema.
type AllowList struct {
	columns map[Table]map[string]struct{}
}

// NewAllowList builds an allow-list from a table → columns map.
func NewAllowList(schema map[Table][]string) *AllowList {
	a := &AllowList{columns: make(map[Table]map[string]struct{}, len(schema))}
	for table, cols := range schema {
		set := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			set[c] = struct{}{}
		}
		a.columns[table] = set
	}
	return a
}

// DefaultAllowList covers DefaultSchema.
func DefaultAllowList() *AllowList {
	return NewAllowList(DefaultSchema())
}

// ValidateField requires a qualified "table.column" present in the schema.
func (a *AllowList) ValidateField(field string) error {
	table, column, ok := strings.Cut(field, ".")
	if !ok || table == "" || column == "" {
		return newValidationError(field, ErrUnknownField, "expected table.column")
	}
	cols, ok := a.columns[Table(table)]
	if !ok {
		return newValidationError(field, ErrUnknownField, "unknown table "+table)
	}
	if _, ok := cols[column]; !ok {
		return newValidationError(field, ErrUnknownField, "unknown column "+column)
	}
	return nil
}
