// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package export

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/metrics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// ErrUnsupportedFormat is returned for formats other than csv, xlsx and json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const maxSlugLength = 80

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and collapses every run of other characters into a
// single hyphen. Empty results become "report".
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "report"
	}
	return s
}

// Filename returns "<slug>.<format>".
func Filename(name string, format models.ReportFormat) string {
	return Slug(name) + "." + string(format)
}

// ParseFormat validates a format query value. Empty defaults to csv.
func ParseFormat(s string) (models.ReportFormat, error) {
	if s == "" {
		return models.FormatCSV, nil
	}
	f := models.ReportFormat(strings.ToLower(s))
	if !models.IsValidReportFormat(f) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Write renders result in format to w.
func Write(w io.Writer, format models.ReportFormat, result *analytics.Result) error {
	var err error
	switch format {
	case models.FormatCSV:
		err = WriteCSV(w, result.Metadata.Columns, result.Data)
	case models.FormatXLSX:
		err = WriteXLSX(w, result.Metadata.Columns, result.Data, totalsRow(result))
	case models.FormatJSON:
		err = json.NewEncoder(w).Encode(result)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("write %s export: %w", format, err)
	}
	metrics.RecordExport(string(format))
	return nil
}

// totalsRow returns totals only for grouped results; ungrouped totals equal
// the single data row.
func totalsRow(result *analytics.Result) analytics.Row {
	req := result.Metadata.Request
	if req == nil || len(req.Dimensions) == 0 {
		return nil
	}
	return result.Totals
}

// formatCell renders a result value as text.
func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case decimal.Decimal:
		return x.String()
	case *big.Int:
		return x.String()
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
