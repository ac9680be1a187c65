// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package export

import (
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/logging"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Report"

// WriteXLSX writes a workbook with a styled header, one row per result and,
// when totals is non-nil, a bold totals row labelled in the first column.
func WriteXLSX(w io.Writer, columns []string, rows []analytics.Row, totals analytics.Row) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := writeRow(f, 1, header); err != nil {
		return err
	}
	if len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for i, row := range rows {
		values := make([]interface{}, len(columns))
		for j, col := range columns {
			values[j] = cellValue(row[col])
		}
		if err := writeRow(f, i+2, values); err != nil {
			return err
		}
	}

	if totals != nil && len(columns) > 0 {
		if err := writeTotals(f, len(rows)+2, columns, totals); err != nil {
			return err
		}
	}

	for i := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, 20); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(SheetName, cell, &values)
}

func writeTotals(f *excelize.File, rowNum int, columns []string, totals analytics.Row) error {
	values := make([]interface{}, len(columns))
	for i, col := range columns {
		if v, ok := totals[col]; ok {
			values[i] = cellValue(v)
		}
	}
	if values[0] == nil {
		values[0] = "Total"
	}
	if err := writeRow(f, rowNum, values); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	first := fmt.Sprintf("A%d", rowNum)
	last, _ := excelize.CoordinatesToCellName(len(columns), rowNum)
	return f.SetCellStyle(SheetName, first, last, style)
}

// cellValue keeps numbers numeric so spreadsheets can sum them.
func cellValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return x.InexactFloat64()
	case *big.Int:
		return x.String()
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC()
	default:
		return x
	}
}
