// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/tomtom215/kontrakpro/internal/database/query"
)

// Query is a compiled request: SQL with "?" placeholders and the values to
// bind, in placeholder order.
type Query struct {
	SQL    string
	Params []interface{}
	// Columns are the SELECT aliases in output order.
	Columns []string
	Anchor  Table
	Joins   []Join
}

// Compiler turns a Request into a Query. It holds no mutable state and is
// safe for concurrent use.
type Compiler struct {
	dialect   Dialect
	graph     *JoinGraph
	validator FieldValidator
	now       func() time.Time

	// granularity truncates the time-period window end so repeated
	// requests bind identical parameters.
	granularity time.Duration
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDialect selects the SQL dialect for date dimensions.
func WithDialect(d Dialect) Option {
	return func(c *Compiler) {
		if d != nil {
			c.dialect = d
		}
	}
}

// WithJoinGraph replaces the default KontrakPro join graph.
func WithJoinGraph(g *JoinGraph) Option {
	return func(c *Compiler) {
		if g != nil {
			c.graph = g
		}
	}
}

// WithFieldValidator installs a schema check run before SQL is built.
func WithFieldValidator(v FieldValidator) Option {
	return func(c *Compiler) {
		c.validator = v
	}
}

// WithClock overrides the time source used for time-period windows.
func WithClock(now func() time.Time) Option {
	return func(c *Compiler) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWindowGranularity rounds time-period windows down to d. Zero keeps
// full clock precision.
func WithWindowGranularity(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.granularity = d
		}
	}
}

// NewCompiler creates a compiler using the DuckDB dialect and the default
// join graph unless overridden.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		dialect: DuckDB,
		graph:   DefaultJoinGraph(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the active dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Compile builds the SQL for req. Clause order is fixed: SELECT (dimensions
// then metrics), FROM, LEFT JOINs, WHERE, GROUP BY, ORDER BY, LIMIT, OFFSET.
func (c *Compiler) Compile(req *Request) (*Query, error) {
	if req == nil || len(req.Metrics) == 0 {
		return nil, newValidationError("metrics", ErrNoMetrics, "")
	}
	if err := c.validateFields(req); err != nil {
		return nil, err
	}

	anchor := ResolveTable(anchorPrefix(req.Metrics[0].Field))

	selects, columns, err := c.selectList(req)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selects, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(string(anchor))

	joins := c.graph.Resolve(anchor, referencedTables(req))
	for _, j := range joins {
		sb.WriteString(" LEFT JOIN ")
		sb.WriteString(string(j.Table))
		sb.WriteString(" ON ")
		sb.WriteString(j.On)
	}

	wb := query.NewWhereBuilder()
	c.addTimeWindow(wb, anchor, req)
	for i := range req.Filters {
		if err := addFilter(wb, &req.Filters[i]); err != nil {
			return nil, err
		}
	}

	var params []interface{}
	if !wb.IsEmpty() {
		clause, args := wb.Build()
		sb.WriteString(" WHERE ")
		sb.WriteString(clause)
		params = append(params, args...)
	}

	if len(req.Dimensions) > 0 {
		groups := make([]string, len(req.Dimensions))
		orders := make([]string, len(req.Dimensions))
		for i, d := range req.Dimensions {
			alias := d.OutputAlias()
			groups[i] = alias
			orders[i] = alias + " ASC"
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	if req.Limit != nil {
		sb.WriteString(" LIMIT ?")
		params = append(params, *req.Limit)
		if req.Offset != nil {
			sb.WriteString(" OFFSET ?")
			params = append(params, *req.Offset)
		}
	}

	if params == nil {
		params = []interface{}{}
	}

	return &Query{
		SQL:     sb.String(),
		Params:  params,
		Columns: columns,
		Anchor:  anchor,
		Joins:   joins,
	}, nil
}

func (c *Compiler) validateFields(req *Request) error {
	if c.validator == nil {
		return nil
	}
	for _, m := range req.Metrics {
		if err := c.validator.ValidateField(m.Field); err != nil {
			return err
		}
	}
	for _, d := range req.Dimensions {
		if err := c.validator.ValidateField(d.Field); err != nil {
			return err
		}
	}
	for _, f := range req.Filters {
		if err := c.validator.ValidateField(f.Field); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) selectList(req *Request) ([]string, []string, error) {
	n := len(req.Dimensions) + len(req.Metrics)
	selects := make([]string, 0, n)
	columns := make([]string, 0, n)
	seen := make(map[string]bool, n)

	add := func(expr, alias string) error {
		if seen[alias] {
			return newValidationError(alias, ErrDuplicateAlias, "set an explicit alias")
		}
		seen[alias] = true
		selects = append(selects, expr+" AS "+alias)
		columns = append(columns, alias)
		return nil
	}

	for _, d := range req.Dimensions {
		expr, err := c.dimensionExpr(d)
		if err != nil {
			return nil, nil, err
		}
		if err := add(expr, d.OutputAlias()); err != nil {
			return nil, nil, err
		}
	}

	for _, m := range req.Metrics {
		fn, err := m.Type.Aggregate()
		if err != nil {
			return nil, nil, newValidationError(m.Field, ErrUnsupportedMetric, string(m.Type))
		}
		if err := add(fn+"("+m.Field+")", m.OutputAlias()); err != nil {
			return nil, nil, err
		}
	}

	return selects, columns, nil
}

func (c *Compiler) dimensionExpr(d Dimension) (string, error) {
	switch d.Type {
	case DimensionDate:
		return c.dialect.Day(d.Field), nil
	case DimensionMonth:
		return c.dialect.Month(d.Field), nil
	case DimensionYear:
		return c.dialect.Year(d.Field), nil
	case DimensionUser, DimensionOrganization, DimensionContractType,
		DimensionContractStatus, DimensionWorkflowStatus:
		return d.Field, nil
	default:
		return "", newValidationError(d.Field, ErrUnsupportedDimension, string(d.Type))
	}
}

// addTimeWindow applies explicit dates when present, otherwise the
// time-period window ending now.
func (c *Compiler) addTimeWindow(wb *query.WhereBuilder, anchor Table, req *Request) {
	column := string(anchor) + ".created_at"

	switch {
	case req.StartDate != nil && req.EndDate != nil:
		wb.AddBetween(column, fromMillis(*req.StartDate), fromMillis(*req.EndDate))
		return
	case req.StartDate != nil || req.EndDate != nil:
		var start, end *time.Time
		if req.StartDate != nil {
			t := fromMillis(*req.StartDate)
			start = &t
		}
		if req.EndDate != nil {
			t := fromMillis(*req.EndDate)
			end = &t
		}
		wb.AddDateRange(column, start, end)
		return
	}

	window, ok := req.TimePeriod.Duration()
	if !ok {
		return
	}
	now := c.now().UTC()
	if c.granularity > 0 {
		now = now.Truncate(c.granularity)
	}
	wb.AddBetween(column, now.Add(-window), now)
}

func addFilter(wb *query.WhereBuilder, f *Filter) error {
	if op, ok := comparisonOperators[f.Operator]; ok {
		if isList(f.Value) {
			return newValidationError(f.Field, ErrInvalidFilterValue,
				fmt.Sprintf("operator %s takes a single value", f.Operator))
		}
		wb.AddComparison(f.Field, op, f.Value)
		return nil
	}

	switch f.Operator {
	case OpIn, OpNotIn:
		values := listValues(f.Value)
		if len(values) == 0 {
			return newValidationError(f.Field, ErrInvalidFilterValue,
				fmt.Sprintf("operator %s needs at least one value", f.Operator))
		}
		wb.AddIn(f.Field, values, f.Operator == OpNotIn)
		return nil
	case OpContains, OpNotContains:
		if isList(f.Value) || f.Value == nil {
			return newValidationError(f.Field, ErrInvalidFilterValue,
				fmt.Sprintf("operator %s takes a single value", f.Operator))
		}
		wb.AddLike(f.Field, "%"+fmt.Sprint(f.Value)+"%", f.Operator == OpNotContains)
		return nil
	default:
		return newValidationError(f.Field, ErrUnsupportedOperator, string(f.Operator))
	}
}

// referencedTables lists qualified tables in first-reference order across
// metrics, dimensions and filters.
func referencedTables(req *Request) []Table {
	var tables []Table
	seen := make(map[Table]bool)
	add := func(field string) {
		if t, ok := fieldTable(field); ok && !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	for _, m := range req.Metrics {
		add(m.Field)
	}
	for _, d := range req.Dimensions {
		add(d.Field)
	}
	for _, f := range req.Filters {
		add(f.Field)
	}
	return tables
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func isList(v interface{}) bool {
	if v == nil {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		_, isBytes := v.([]byte)
		return !isBytes
	}
	return false
}

// listValues flattens a list value; a scalar becomes a one-element list.
func listValues(v interface{}) []interface{} {
	if v == nil {
		return nil
	}
	if !isList(v) {
		return []interface{}{v}
	}
	if vs, ok := v.([]interface{}); ok {
		return vs
	}
	rv := reflect.ValueOf(v)
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
