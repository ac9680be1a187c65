// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kontrakpro/internal/analytics"
	"github.com/tomtom215/kontrakpro/internal/database"
	"github.com/tomtom215/kontrakpro/internal/executor"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/models"
	"github.com/tomtom215/kontrakpro/internal/validation"
)

// Error codes returned in models.APIError.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeQuery       = "QUERY_ERROR"
	codeDatabase    = "DATABASE_ERROR"
	codeNotFound    = "NOT_FOUND"
	codeUnavailable = "SERVICE_UNAVAILABLE"
	codeInternal    = "INTERNAL_ERROR"
)

const (
	// maxRequestBodyBytes bounds JSON request bodies.
	maxRequestBodyBytes = 1 << 20

	defaultPageSize = 50
	maxPageSize     = 500
)

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("ETag", generateETag(data))

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondSuccess wraps data in a success envelope carrying the request ID.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: newMetadata(r),
	})
}

func newMetadata(r *http.Request) models.Metadata {
	return models.Metadata{
		Timestamp: time.Now(),
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	respondErrorDetails(w, status, code, message, nil, err)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details map[string]interface{}, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondAnalyticsError maps compile and execution failures:
// validation errors are 400, an unavailable executor is 503 and anything
// else is a 500 carrying the executor's message.
func respondAnalyticsError(w http.ResponseWriter, err error) {
	var ve *analytics.ValidationError
	switch {
	case errors.As(err, &ve):
		var details map[string]interface{}
		if ve.Field != "" {
			details = map[string]interface{}{"field": ve.Field}
		}
		respondErrorDetails(w, http.StatusBadRequest, codeValidation, ve.Error(), details, nil)
	case errors.Is(err, executor.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "Analytics executor is unavailable, retry later", err)
	default:
		respondError(w, http.StatusInternalServerError, codeQuery, err.Error(), err)
	}
}

// respondStoreError maps database failures for the named record type.
func respondStoreError(w http.ResponseWriter, err error, what string) {
	switch {
	case database.IsNotFound(err):
		respondError(w, http.StatusNotFound, codeNotFound, what+" not found", nil)
	case database.IsConnectionError(err):
		respondError(w, http.StatusServiceUnavailable, codeUnavailable, "Database is unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, codeDatabase, "Failed to access "+strings.ToLower(what), err)
	}
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError if validation fails.
//
// Example:
//
//	var req models.CreateReportRequest
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondValidation(w, apiErr)
//	    return
//	}
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

func respondValidation(w http.ResponseWriter, apiErr *models.APIError) {
	respondErrorDetails(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details, nil)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// decodeAnalyticsRequest decodes and validates an analytics request body
// and clamps its limit. It writes the error response itself and returns
// nil on failure.
func (h *Handler) decodeAnalyticsRequest(w http.ResponseWriter, r *http.Request) *analytics.Request {
	var req analytics.Request
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return nil
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return nil
	}
	h.engine.ClampLimit(&req)
	return &req
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getPagination reads limit and offset, clamping both into range.
func getPagination(r *http.Request) (limit, offset int) {
	limit = getIntParam(r, "limit", defaultPageSize)
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseCommaSeparated parses a comma-separated string into a slice
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
