// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package executor

import (
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// normalizeValue maps driver values onto the types the API encodes and
// ComputeTotals folds:
//   - MySQL []byte becomes a number for numeric columns and a string otherwise
//   - DuckDB HUGEINT (*big.Int) becomes int64 when it fits, float64 otherwise
//   - driver decimal types exposing Float64() become float64
//
// Everything else passes through unchanged.
func normalizeValue(v interface{}, dbType string) interface{} {
	switch n := v.(type) {
	case nil:
		return nil
	case []byte:
		s := string(n)
		if isNumericType(dbType) {
			if num, ok := parseNumber(s); ok {
				return num
			}
		}
		return s
	case *big.Int:
		if n == nil {
			return nil
		}
		if n.IsInt64() {
			return n.Int64()
		}
		f, _ := new(big.Float).SetInt(n).Float64()
		return f
	case string, bool, int64, float64, int32, float32:
		return v
	}
	if f, ok := floatMethod(v); ok {
		return f
	}
	return v
}

// floatMethod calls Float64() whether it is declared on the value or the
// pointer receiver.
func floatMethod(v interface{}) (float64, bool) {
	type floater interface{ Float64() float64 }
	if f, ok := v.(floater); ok {
		return f.Float64(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return 0, false
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	if f, ok := ptr.Interface().(floater); ok {
		return f.Float64(), true
	}
	return 0, false
}

func isNumericType(dbType string) bool {
	t := strings.ToUpper(dbType)
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch strings.TrimPrefix(t, "UNSIGNED ") {
	case "DECIMAL", "NEWDECIMAL", "NUMERIC",
		"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "HUGEINT",
		"FLOAT", "DOUBLE", "REAL":
		return true
	}
	return false
}

func parseNumber(s string) (interface{}, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}
