// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped in *ValidationError) by the compiler.
var (
	ErrNoMetrics             = errors.New("at least one metric is required")
	ErrUnsupportedMetric     = errors.New("unsupported metric type")
	ErrUnsupportedDimension  = errors.New("unsupported dimension type")
	ErrUnsupportedOperator   = errors.New("unsupported filter operator")
	ErrUnsupportedTimePeriod = errors.New("unsupported time period")
	ErrInvalidFilterValue    = errors.New("invalid filter value")
	ErrDuplicateAlias        = errors.New("duplicate column alias")
	ErrUnknownField          = errors.New("unknown field")
	ErrUnknownDialect        = errors.New("unknown SQL dialect")
)

// ValidationError reports a request that cannot be compiled. Handlers map it
// to a 400 response; anything else coming out of the analytics path is an
// execution failure.
type ValidationError struct {
	Field  string
	Detail string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func newValidationError(field string, err error, detail string) *ValidationError {
	return &ValidationError{Field: field, Detail: detail, Err: err}
}

// IsValidationError reports whether err (or anything it wraps) is a
// *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
