// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// rowScanner is an interface that both sql.Row and sql.Rows satisfy.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// observeQuery records a store read in the db query metrics. Use with a
// named error return.
func observeQuery(operation, table string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), *err)
}

// nullableJSON returns nil for empty JSON so the column stores NULL.
func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

// nullableString returns nil for empty strings so the column stores NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullableTime returns nil for unset times.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// timePtr converts a scanned NullTime into an optional time.
func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// parseJSONField unmarshals a NullString JSON field into a new value.
// Returns nil if the field is not valid or empty.
func parseJSONField[T any](field sql.NullString, fieldName string) (*T, error) {
	if !field.Valid || field.String == "" {
		return nil, nil
	}
	var result T
	if err := json.Unmarshal([]byte(field.String), &result); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return &result, nil
}

// parseJSONFieldInto unmarshals a NullString JSON field into an existing destination.
func parseJSONFieldInto(field sql.NullString, dest interface{}, fieldName string) error {
	if !field.Valid || field.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(field.String), dest); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return nil
}

// marshalJSONField marshals a value to JSON bytes with error wrapping.
func marshalJSONField(v interface{}, fieldName string) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", fieldName, err)
	}
	return data, nil
}

// filterBuilder constructs the WHERE clause of list queries.
type filterBuilder struct {
	clauses []string
	args    []interface{}
}

func newFilterBuilder() *filterBuilder {
	return &filterBuilder{}
}

// addFilter adds an equality clause if the value is non-empty.
func (fb *filterBuilder) addFilter(column string, value string) *filterBuilder {
	if value != "" {
		fb.clauses = append(fb.clauses, column+" = ?")
		fb.args = append(fb.args, value)
	}
	return fb
}

// addBoolFilter adds an equality clause if the bool pointer is non-nil.
func (fb *filterBuilder) addBoolFilter(column string, value *bool) *filterBuilder {
	if value != nil {
		fb.clauses = append(fb.clauses, column+" = ?")
		fb.args = append(fb.args, *value)
	}
	return fb
}

// buildWhere returns " WHERE 1=1[ AND ...]" and its arguments.
func (fb *filterBuilder) buildWhere() (string, []interface{}) {
	where := " WHERE 1=1"
	for _, clause := range fb.clauses {
		where += " AND " + clause
	}
	return where, fb.args
}

// updateBuilder constructs partial UPDATE statements.
type updateBuilder struct {
	setClauses []string
	args       []interface{}
}

func newUpdateBuilder() *updateBuilder {
	return &updateBuilder{}
}

// setString adds a string field update if the pointer is non-nil.
func (ub *updateBuilder) setString(column string, value *string) *updateBuilder {
	if value != nil {
		ub.setClauses = append(ub.setClauses, column+" = ?")
		ub.args = append(ub.args, *value)
	}
	return ub
}

// setBool adds a bool field update if the pointer is non-nil.
func (ub *updateBuilder) setBool(column string, value *bool) *updateBuilder {
	if value != nil {
		ub.setClauses = append(ub.setClauses, column+" = ?")
		ub.args = append(ub.args, *value)
	}
	return ub
}

// setValue adds an unconditional field update.
func (ub *updateBuilder) setValue(column string, value interface{}) *updateBuilder {
	ub.setClauses = append(ub.setClauses, column+" = ?")
	ub.args = append(ub.args, value)
	return ub
}

// setJSON marshals and adds a JSON field update if the value is non-nil.
func (ub *updateBuilder) setJSON(column string, value interface{}, fieldName string) error {
	if isNilValue(value) {
		return nil
	}
	data, err := marshalJSONField(value, fieldName)
	if err != nil {
		return err
	}
	ub.setClauses = append(ub.setClauses, column+" = ?")
	ub.args = append(ub.args, string(data))
	return nil
}

// setTimestamp adds a timestamp field update.
func (ub *updateBuilder) setTimestamp(column string, t time.Time) *updateBuilder {
	ub.setClauses = append(ub.setClauses, column+" = ?")
	ub.args = append(ub.args, t.UTC())
	return ub
}

// isEmpty returns true if no updates have been added.
func (ub *updateBuilder) isEmpty() bool {
	return len(ub.setClauses) == 0
}

// build returns the SET clause string and all arguments including the whereArg.
func (ub *updateBuilder) build(whereArg interface{}) (string, []interface{}) {
	args := append(ub.args, whereArg)
	return strings.Join(ub.setClauses, ", "), args
}

// isNilValue catches typed nil pointers and empty slices wrapped in interface{}.
func isNilValue(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case []string:
		return x == nil
	case json.RawMessage:
		return len(x) == 0
	}
	return false
}

// checkAffected maps a zero-row UPDATE or DELETE to ErrNotFound.
func checkAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
	}
	return nil
}
