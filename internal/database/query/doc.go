// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package query provides SQL query building utilities.
//
// # Overview
//
// The WhereBuilder is the primary component, providing a fluent interface for
// constructing WHERE clauses with positional "?" placeholders:
//
//	wb := query.NewWhereBuilder()
//	wb.AddBetween("contracts.created_at", start, end)
//	wb.AddComparison("contracts.value", ">=", 5000)
//	wb.AddIn("contracts.status", []interface{}{"active", "pending"}, false)
//	wb.AddLike("contracts.title", "%lease%", true)
//	whereClause, args := wb.Build()
//	// contracts.created_at BETWEEN ? AND ? AND contracts.value >= ?
//	//   AND contracts.status IN (?, ?) AND contracts.title NOT LIKE ?
//	// args: [start, end, 5000, "active", "pending", "%lease%"]
//
// The analytics compiler uses it for request filters and time windows; the
// database package uses it for report and audit listings.
//
// # Available Methods
//
//   - AddClause: raw clause with arguments
//   - AddComparison: column <op> ?
//   - AddIn: column [NOT] IN (?, ...)
//   - AddLike: column [NOT] LIKE ?
//   - AddBetween: column BETWEEN ? AND ?
//   - AddDateRange: open-ended >= / <= bounds
//
// # SQL Injection Prevention
//
// Values are only ever bound. Column names and operators are written into
// the SQL verbatim, so callers must take them from a closed set or validate
// them first.
//
// # Thread Safety
//
// WhereBuilder instances are not thread-safe. Create one per query.
package query
