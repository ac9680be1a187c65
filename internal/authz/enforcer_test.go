// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package authz

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupEnforcer creates an enforcer with default config.
func setupEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	enforcer, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	return enforcer
}

func TestEmbeddedPolicy(t *testing.T) {
	e := setupEnforcer(t)

	tests := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{"viewer", ObjectAnalytics, ActionRead, true},
		{"viewer", ObjectAnalytics, ActionExport, true},
		{"viewer", ObjectReports, ActionRead, true},
		{"viewer", ObjectReports, ActionWrite, false},
		{"viewer", ObjectReports, ActionRun, false},
		{"viewer", ObjectDashboards, ActionDelete, false},
		{"viewer", ObjectAudit, ActionRead, false},
		{"editor", ObjectReports, ActionRead, true},
		{"editor", ObjectReports, ActionWrite, true},
		{"editor", ObjectReports, ActionRun, true},
		{"editor", ObjectDashboards, ActionDelete, true},
		{"editor", ObjectAnalytics, ActionRead, true},
		{"editor", ObjectAudit, ActionRead, false},
		{"admin", ObjectAudit, ActionRead, true},
		{"admin", ObjectReports, ActionDelete, true},
		{"unknown", ObjectAnalytics, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			got, err := e.Enforce(tt.role, tt.object, tt.action)
			if err != nil {
				t.Fatalf("Enforce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnforceWithRoles(t *testing.T) {
	e := setupEnforcer(t)

	tests := []struct {
		name    string
		subject string
		roles   []string
		object  string
		action  string
		want    bool
	}{
		{"token role", "u1", []string{"editor"}, ObjectReports, ActionWrite, true},
		{"default role", "u2", nil, ObjectAnalytics, ActionRead, true},
		{"default role denies write", "u2", nil, ObjectReports, ActionWrite, false},
		{"user named like a role", "admin", []string{"viewer"}, ObjectAudit, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EnforceWithRoles(tt.subject, tt.roles, tt.object, tt.action)
			if err != nil {
				t.Fatalf("EnforceWithRoles() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAddRoleForUser(t *testing.T) {
	e := setupEnforcer(t)

	if allowed, _ := e.EnforceWithRoles("auditor-1", []string{"viewer"}, ObjectAudit, ActionRead); allowed {
		t.Fatal("Expected deny before assignment")
	}

	if _, err := e.AddRoleForUser("auditor-1", "admin"); err != nil {
		t.Fatalf("AddRoleForUser() error = %v", err)
	}

	allowed, err := e.EnforceWithRoles("auditor-1", []string{"viewer"}, ObjectAudit, ActionRead)
	if err != nil {
		t.Fatalf("EnforceWithRoles() error = %v", err)
	}
	if !allowed {
		t.Error("Expected allow after assignment")
	}

	roles, _ := e.GetRolesForUser("auditor-1")
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("Expected [admin], got %v", roles)
	}
}

func TestNewEnforcer_PolicyFile(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.csv")
	policy := "p, viewer, reports, read\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: policyPath})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	if ok, _ := e.Enforce("viewer", ObjectReports, ActionRead); !ok {
		t.Error("Expected file policy to allow reports read")
	}
	if ok, _ := e.Enforce("viewer", ObjectAnalytics, ActionRead); ok {
		t.Error("Expected file policy to replace the embedded one")
	}
}

func TestLoadPolicy_Malformed(t *testing.T) {
	if _, err := NewEnforcer(nil); err != nil {
		t.Fatalf("embedded policy must load: %v", err)
	}

	e := setupEnforcer(t)
	if err := loadPolicy(e.enforcer, "p, viewer, reports"); err == nil {
		t.Error("Expected error for short policy line")
	}
}

func TestGetPolicy(t *testing.T) {
	if len(setupEnforcer(t).GetPolicy()) == 0 {
		t.Error("Expected embedded policy rules")
	}
}

func TestDecisionCache(t *testing.T) {
	c := newDecisionCache(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.get("viewer", "reports", "read"); ok {
		t.Error("Expected miss on empty cache")
	}

	c.set("viewer", "reports", "read", true)
	if allowed, ok := c.get("viewer", "reports", "read"); !ok || !allowed {
		t.Errorf("Expected cached allow, got allowed=%v ok=%v", allowed, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get("viewer", "reports", "read"); ok {
		t.Error("Expected expired entry to miss")
	}

	c.clear()
	if c.len() != 0 {
		t.Errorf("Expected empty cache after clear, got %d", c.len())
	}
}
