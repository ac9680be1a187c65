// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Field names in errors are the
// JSON names, with the path from the request root:
//
//	request.metrics[0].field must be a table.column reference
//
// # Custom Tags
//
//   - sqlident: "table.column", both parts [A-Za-z_][A-Za-z0-9_]*. Applied to
//     every metric, dimension and filter field before compilation so that
//     nothing but identifiers reaches the SQL text.
//   - sqlalias: a plain identifier of at most 63 characters, for output
//     aliases.
//
// # Usage
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
