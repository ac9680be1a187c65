// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

/*
Package analytics compiles declarative analytics requests into parameterized
SQL over the KontrakPro schema (contracts, workflows, workflow_steps,
documents, users, organizations, audit_logs).

# Request Language

A Request names one or more metrics (count, sum, average, min, max over a
table.column field), optional dimensions to group by (date, month, year, or
a categorical column), filters (eq, neq, gt, gte, lt, lte, in, not_in,
contains, not_contains), a time window (explicit epoch-millisecond bounds or
a day/week/month/quarter/year period) and optional limit/offset.

	req := &analytics.Request{
	    Metrics:    []analytics.Metric{{Type: analytics.MetricCount, Field: "contracts.id"}},
	    Dimensions: []analytics.Dimension{{Type: analytics.DimensionContractStatus, Field: "contracts.status"}},
	    TimePeriod: analytics.PeriodMonth,
	}
	q, err := analytics.NewCompiler(analytics.WithDialect(analytics.DuckDB)).Compile(req)
	// SELECT contracts.status AS contracts_status, COUNT(contracts.id) AS count_contracts_id
	//   FROM contracts WHERE contracts.created_at BETWEEN ? AND ?
	//   GROUP BY contracts_status ORDER BY contracts_status ASC

# Compilation

The anchor table comes from the first metric's field prefix. Every other
qualified table is reached through the JoinGraph, an adjacency map of
foreign keys resolved breadth-first from the anchor. Only many-to-one edges
are followed, so child tables of the anchor are never joined and aggregates
keep one row per anchor row. Every SELECT column
carries an alias, and GROUP BY and ORDER BY refer to those aliases.

Values never appear in the SQL text. Filter values, time bounds, limit and
offset are returned in Query.Params in placeholder order.

Field names are written into the SQL as given. Install an AllowList with
WithFieldValidator to reject unknown table.column references at compile
time; the HTTP layer also checks identifier syntax.

# Totals

ComputeTotals folds executed rows into a summary row. See its documentation
for the average semantics.

# Thread Safety

Compiler is immutable after construction and safe for concurrent use.
*/
package analytics
