// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/kontrakpro/internal/auth"
)

func TestMiddleware_Require(t *testing.T) {
	m := NewMiddleware(setupEnforcer(t))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		subject    *auth.AuthSubject
		object     string
		action     string
		wantStatus int
	}{
		{"no subject", nil, ObjectReports, ActionRead, http.StatusUnauthorized},
		{"viewer reads", &auth.AuthSubject{ID: "u1", Roles: []string{"viewer"}}, ObjectReports, ActionRead, http.StatusNoContent},
		{"viewer writes", &auth.AuthSubject{ID: "u1", Roles: []string{"viewer"}}, ObjectReports, ActionWrite, http.StatusForbidden},
		{"editor writes", &auth.AuthSubject{ID: "u2", Roles: []string{"editor"}}, ObjectReports, ActionWrite, http.StatusNoContent},
		{"admin audit", &auth.AuthSubject{ID: "u3", Roles: []string{"admin"}}, ObjectAudit, ActionRead, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
			if tt.subject != nil {
				req = req.WithContext(auth.ContextWithSubject(req.Context(), tt.subject))
			}
			rec := httptest.NewRecorder()
			m.Require(tt.object, tt.action)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestMiddleware_DenyHook(t *testing.T) {
	m := NewMiddleware(setupEnforcer(t))

	var denied string
	m.OnDeny(func(r *http.Request, s *auth.AuthSubject, object, action string) {
		denied = s.ID + ":" + object + ":" + action
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/dashboards/d1", nil)
	req = req.WithContext(auth.ContextWithSubject(req.Context(), &auth.AuthSubject{ID: "u1", Roles: []string{"viewer"}}))
	rec := httptest.NewRecorder()
	m.Require(ObjectDashboards, ActionDelete)(http.NotFoundHandler()).ServeHTTP(rec, req)

	if denied != "u1:dashboards:delete" {
		t.Errorf("Expected deny hook call, got %q", denied)
	}
}
