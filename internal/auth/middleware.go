// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/kontrakpro/internal/config"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
	"github.com/tomtom215/kontrakpro/internal/models"
)

// FailureHook observes rejected requests, e.g. to write an audit event.
type FailureHook func(r *http.Request, err error)

// Middleware authenticates API requests.
type Middleware struct {
	jwtManager  *JWTManager
	authMode    AuthMode
	defaultRole string
	onFailure   FailureHook
}

// NewMiddleware creates the authentication middleware for cfg.AuthMode.
func NewMiddleware(cfg *config.SecurityConfig) (*Middleware, error) {
	mode, err := ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}

	defaultRole := cfg.DefaultRole
	if defaultRole == "" {
		defaultRole = RoleViewer
	}

	m := &Middleware{
		authMode:    mode,
		defaultRole: defaultRole,
	}

	if mode == AuthModeJWT {
		m.jwtManager, err = NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// OnFailure registers a hook called for every rejected request.
func (m *Middleware) OnFailure(hook FailureHook) {
	m.onFailure = hook
}

// Mode returns the active authentication mode.
func (m *Middleware) Mode() AuthMode {
	return m.authMode
}

// Authenticate attaches an AuthSubject to the request context or rejects
// the request with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == AuthModeNone {
			ctx := ContextWithSubject(r.Context(), AnonymousSubject(m.defaultRole))
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token, err := extractBearerToken(r)
		if err != nil {
			m.reject(w, r, "missing_token", err)
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			reason := "invalid_token"
			if errors.Is(err, ErrExpiredCredentials) {
				reason = "expired_token"
			}
			m.reject(w, r, reason, err)
			return
		}

		subject := AuthSubjectFromClaims(claims, m.defaultRole)
		ctx := ContextWithSubject(r.Context(), subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, reason string, err error) {
	logging.Ctx(r.Context()).Warn().Err(err).Str("reason", reason).Msg("Authentication failed")
	metrics.RecordAuthFailure(reason)
	if m.onFailure != nil {
		m.onFailure(r, err)
	}

	message := "invalid token"
	switch {
	case errors.Is(err, ErrNoCredentials):
		message = "missing bearer token"
	case errors.Is(err, ErrExpiredCredentials):
		message = "token expired"
	}

	w.Header().Set("WWW-Authenticate", `Bearer realm="kontrakpro"`)
	WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// extractBearerToken reads "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoCredentials
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidCredentials)
	}

	return strings.TrimSpace(parts[1]), nil
}

// SecurityHeaders sets response headers for a JSON-only API.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// WriteError writes the standard error envelope. It is shared with the
// authorization middleware, which cannot depend on the api package.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
		Error: &models.APIError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode error response")
	}
}
