// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package export

import (
	"encoding/csv"
	"io"

	"github.com/tomtom215/kontrakpro/internal/analytics"
)

// WriteCSV writes a header of columns and one record per row. Missing
// columns render as empty fields.
func WriteCSV(w io.Writer, columns []string, rows []analytics.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = formatCell(row[col])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
