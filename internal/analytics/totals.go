// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ComputeTotals folds executed rows into a single summary row keyed by
// metric alias.
//
// Without dimensions the query returns one ungrouped row, which is the
// totals row verbatim. With dimensions each metric is folded over the
// grouped rows: count and sum add up, min and max fold, and average divides
// the sum of the group values by the number of groups. That is the average
// of the group values, not a grand average over the underlying rows.
//
// Returns nil when there are no rows.
func ComputeTotals(req *Request, rows []Row) Row {
	if req == nil || len(rows) == 0 {
		return nil
	}
	if len(req.Dimensions) == 0 {
		return rows[0]
	}

	totals := make(Row, len(req.Metrics))
	for _, m := range req.Metrics {
		alias := m.OutputAlias()
		switch m.Type {
		case MetricCount, MetricSum:
			totals[alias] = fromDecimal(sumColumn(rows, alias))
		case MetricAverage:
			avg := sumColumn(rows, alias).Div(decimal.NewFromInt(int64(len(rows))))
			totals[alias] = avg.InexactFloat64()
		case MetricMin:
			totals[alias] = foldColumn(rows, alias, func(a, b decimal.Decimal) bool { return b.LessThan(a) })
		case MetricMax:
			totals[alias] = foldColumn(rows, alias, func(a, b decimal.Decimal) bool { return b.GreaterThan(a) })
		}
	}
	return totals
}

// sumColumn treats NULL and non-numeric cells as zero.
func sumColumn(rows []Row, alias string) decimal.Decimal {
	sum := decimal.Zero
	for _, row := range rows {
		if d, ok := toDecimal(row[alias]); ok {
			sum = sum.Add(d)
		}
	}
	return sum
}

// foldColumn skips NULL and non-numeric cells; all-NULL columns fold to nil.
func foldColumn(rows []Row, alias string, replace func(current, candidate decimal.Decimal) bool) interface{} {
	var (
		best  decimal.Decimal
		found bool
	)
	for _, row := range rows {
		d, ok := toDecimal(row[alias])
		if !ok {
			continue
		}
		if !found || replace(best, d) {
			best = d
			found = true
		}
	}
	if !found {
		return nil
	}
	return fromDecimal(best)
}

func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(n)), 0), true
	case uint8:
		return decimal.NewFromInt(int64(n)), true
	case uint16:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), true
	case float32:
		return finiteFloat(float64(n))
	case float64:
		return finiteFloat(n)
	case *big.Int:
		if n == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromBigInt(n, 0), true
	case decimal.Decimal:
		return n, true
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(string(n))
		return d, err == nil
	case bool:
		return decimal.Zero, false
	default:
		return decimal.Zero, false
	}
}

func finiteFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// fromDecimal returns int64 for integral values that fit and float64
// otherwise.
func fromDecimal(d decimal.Decimal) interface{} {
	if d.IsInteger() {
		if i, err := strconv.ParseInt(d.String(), 10, 64); err == nil {
			return i
		}
	}
	return d.InexactFloat64()
}
