// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package authz

import (
	"net/http"

	"github.com/tomtom215/kontrakpro/internal/auth"
	"github.com/tomtom215/kontrakpro/internal/logging"
	"github.com/tomtom215/kontrakpro/internal/metrics"
)

// DenyHook observes denied requests.
type DenyHook func(r *http.Request, subject *auth.AuthSubject, object, action string)

// Middleware provides authorization middleware using Casbin.
type Middleware struct {
	enforcer *Enforcer
	onDeny   DenyHook
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// OnDeny registers a hook called for every 403.
func (m *Middleware) OnDeny(hook DenyHook) {
	m.onDeny = hook
}

// Require returns chi-compatible middleware enforcing (object, action) for
// the authenticated subject.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := auth.GetAuthSubject(r.Context())
			if subject == nil {
				auth.WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "no authentication context")
				return
			}

			allowed, err := m.enforcer.EnforceWithRoles(subject.ID, subject.Roles, object, action)
			if err != nil {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authorization error")
				auth.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed")
				return
			}
			metrics.RecordAuthzDecision(object, action, allowed)

			if !allowed {
				logging.Ctx(r.Context()).Warn().
					Str("subject", subject.ID).
					Str("object", object).
					Str("action", action).
					Msg("Authorization denied")
				if m.onDeny != nil {
					m.onDeny(r, subject, object, action)
				}
				auth.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
