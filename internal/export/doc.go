// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package export renders analytics results as CSV, XLSX or JSON artifacts.
//
// CSV output is RFC 4180: a header row of SELECT aliases followed by one
// line per result row. XLSX output has the same layout on a "Report" sheet
// with a styled header, plus a trailing totals row when the request had
// dimensions. JSON output is the full analytics result.
//
// Filenames are derived from report names by Filename, which slugifies the
// name and falls back to "report".
package export
