// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// MetricType is the aggregate applied to a metric field.
type MetricType string

const (
	MetricCount   MetricType = "count"
	MetricSum     MetricType = "sum"
	MetricAverage MetricType = "average"
	MetricMin     MetricType = "min"
	MetricMax     MetricType = "max"
)

var metricAggregates = map[MetricType]string{
	MetricCount:   "COUNT",
	MetricSum:     "SUM",
	MetricAverage: "AVG",
	MetricMin:     "MIN",
	MetricMax:     "MAX",
}

// Valid reports whether m is one of the known metric types.
func (m MetricType) Valid() bool {
	_, ok := metricAggregates[m]
	return ok
}

// Aggregate returns the SQL aggregate function for m.
func (m MetricType) Aggregate() (string, error) {
	fn, ok := metricAggregates[m]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMetric, string(m))
	}
	return fn, nil
}

func (m *MetricType) UnmarshalJSON(data []byte) error {
	v, err := unmarshalTag(data, func(s string) bool { return MetricType(s).Valid() }, ErrUnsupportedMetric)
	if err != nil {
		return err
	}
	*m = MetricType(v)
	return nil
}

// DimensionType is a grouping key. Temporal dimensions are transformed by the
// active dialect; the rest group on the raw column.
type DimensionType string

const (
	DimensionDate           DimensionType = "date"
	DimensionMonth          DimensionType = "month"
	DimensionYear           DimensionType = "year"
	DimensionUser           DimensionType = "user"
	DimensionOrganization   DimensionType = "organization"
	DimensionContractType   DimensionType = "contract_type"
	DimensionContractStatus DimensionType = "contract_status"
	DimensionWorkflowStatus DimensionType = "workflow_status"
)

// Valid reports whether d is one of the known dimension types.
func (d DimensionType) Valid() bool {
	switch d {
	case DimensionDate, DimensionMonth, DimensionYear,
		DimensionUser, DimensionOrganization,
		DimensionContractType, DimensionContractStatus, DimensionWorkflowStatus:
		return true
	}
	return false
}

// IsTemporal reports whether d applies a date transform.
func (d DimensionType) IsTemporal() bool {
	return d == DimensionDate || d == DimensionMonth || d == DimensionYear
}

func (d *DimensionType) UnmarshalJSON(data []byte) error {
	v, err := unmarshalTag(data, func(s string) bool { return DimensionType(s).Valid() }, ErrUnsupportedDimension)
	if err != nil {
		return err
	}
	*d = DimensionType(v)
	return nil
}

// FilterOp is a filter comparison operator.
type FilterOp string

const (
	OpEq          FilterOp = "eq"
	OpNeq         FilterOp = "neq"
	OpGt          FilterOp = "gt"
	OpGte         FilterOp = "gte"
	OpLt          FilterOp = "lt"
	OpLte         FilterOp = "lte"
	OpIn          FilterOp = "in"
	OpNotIn       FilterOp = "not_in"
	OpContains    FilterOp = "contains"
	OpNotContains FilterOp = "not_contains"
)

var comparisonOperators = map[FilterOp]string{
	OpEq:  "=",
	OpNeq: "!=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// Valid reports whether op is one of the known filter operators.
func (op FilterOp) Valid() bool {
	if _, ok := comparisonOperators[op]; ok {
		return true
	}
	switch op {
	case OpIn, OpNotIn, OpContains, OpNotContains:
		return true
	}
	return false
}

// IsList reports whether op takes a list of values.
func (op FilterOp) IsList() bool {
	return op == OpIn || op == OpNotIn
}

func (op *FilterOp) UnmarshalJSON(data []byte) error {
	v, err := unmarshalTag(data, func(s string) bool { return FilterOp(s).Valid() }, ErrUnsupportedOperator)
	if err != nil {
		return err
	}
	*op = FilterOp(v)
	return nil
}

// TimePeriod selects a fixed-length window ending at compile time.
type TimePeriod string

const (
	PeriodDay     TimePeriod = "day"
	PeriodWeek    TimePeriod = "week"
	PeriodMonth   TimePeriod = "month"
	PeriodQuarter TimePeriod = "quarter"
	PeriodYear    TimePeriod = "year"
	PeriodCustom  TimePeriod = "custom"
)

// Windows are fixed durations, not calendar periods.
var periodDurations = map[TimePeriod]time.Duration{
	PeriodDay:     24 * time.Hour,
	PeriodWeek:    7 * 24 * time.Hour,
	PeriodMonth:   30 * 24 * time.Hour,
	PeriodQuarter: 90 * 24 * time.Hour,
	PeriodYear:    365 * 24 * time.Hour,
}

// Valid reports whether p is empty or one of the known periods.
func (p TimePeriod) Valid() bool {
	if p == "" || p == PeriodCustom {
		return true
	}
	_, ok := periodDurations[p]
	return ok
}

// Duration returns the window length. Custom and empty periods have none.
func (p TimePeriod) Duration() (time.Duration, bool) {
	d, ok := periodDurations[p]
	return d, ok
}

func (p *TimePeriod) UnmarshalJSON(data []byte) error {
	v, err := unmarshalTag(data, func(s string) bool { return TimePeriod(s).Valid() }, ErrUnsupportedTimePeriod)
	if err != nil {
		return err
	}
	*p = TimePeriod(v)
	return nil
}

func unmarshalTag(data []byte, valid func(string) bool, sentinel error) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	if !valid(s) {
		return "", fmt.Errorf("%w: %q", sentinel, s)
	}
	return s, nil
}

// Metric is an aggregate over a dotted table.column field.
type Metric struct {
	Type  MetricType `json:"type" validate:"required"`
	Field string     `json:"field" validate:"required,sqlident"`
	Alias string     `json:"alias,omitempty" validate:"omitempty,sqlalias"`
}

// OutputAlias returns the explicit alias or "<type>_<field with . as _>".
func (m Metric) OutputAlias() string {
	if m.Alias != "" {
		return m.Alias
	}
	return string(m.Type) + "_" + underscore(m.Field)
}

// Dimension is a grouping key over a dotted table.column field.
type Dimension struct {
	Type  DimensionType `json:"type" validate:"required"`
	Field string        `json:"field" validate:"required,sqlident"`
	Alias string        `json:"alias,omitempty" validate:"omitempty,sqlalias"`
}

// OutputAlias returns the explicit alias or the field with . replaced by _.
func (d Dimension) OutputAlias() string {
	if d.Alias != "" {
		return d.Alias
	}
	return underscore(d.Field)
}

// Filter restricts rows. Value is a scalar, or a list for in/not_in.
type Filter struct {
	Field    string      `json:"field" validate:"required,sqlident"`
	Operator FilterOp    `json:"operator" validate:"required"`
	Value    interface{} `json:"value"`
}

// Request is the declarative analytics query accepted over HTTP and stored
// inside reports and dashboard widgets.
type Request struct {
	Metrics    []Metric    `json:"metrics" validate:"required,min=1,dive"`
	Dimensions []Dimension `json:"dimensions,omitempty" validate:"omitempty,dive"`
	Filters    []Filter    `json:"filters,omitempty" validate:"omitempty,dive"`
	TimePeriod TimePeriod  `json:"timePeriod,omitempty"`
	// StartDate and EndDate are epoch milliseconds.
	StartDate *int64 `json:"startDate,omitempty"`
	EndDate   *int64 `json:"endDate,omitempty"`
	Limit     *int   `json:"limit,omitempty" validate:"omitempty,min=1"`
	Offset    *int   `json:"offset,omitempty" validate:"omitempty,min=0"`
}

// ParseRequest decodes a stored or submitted request body.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode analytics request: %w", err)
	}
	return &req, nil
}

// Row is one result row keyed by column alias.
type Row = map[string]interface{}

// Result is the executed form of a Request.
type Result struct {
	Data     []Row          `json:"data"`
	Totals   Row            `json:"totals,omitempty"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata echoes the request and describes the result set.
// HasMore is true when the row count equals the requested limit; it is an
// approximation, not an existence check.
type ResultMetadata struct {
	Request         *Request `json:"request"`
	Columns         []string `json:"columns"`
	RowCount        int      `json:"rowCount"`
	HasMore         bool     `json:"hasMore"`
	ExecutionTimeMS int64    `json:"executionTimeMs"`
	Cached          bool     `json:"cached,omitempty"`
}

// NewResult assembles a Result from executed rows, folding totals.
func NewResult(req *Request, q *Query, rows []Row, elapsed time.Duration) *Result {
	if rows == nil {
		rows = []Row{}
	}
	var columns []string
	if q != nil {
		columns = q.Columns
	}
	return &Result{
		Data:   rows,
		Totals: ComputeTotals(req, rows),
		Metadata: ResultMetadata{
			Request:         req,
			Columns:         columns,
			RowCount:        len(rows),
			HasMore:         req.Limit != nil && len(rows) == *req.Limit,
			ExecutionTimeMS: elapsed.Milliseconds(),
		},
	}
}

func underscore(field string) string {
	return strings.ReplaceAll(field, ".", "_")
}
