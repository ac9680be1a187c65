// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import (
	"errors"
	"reflect"
	"testing"
)

func TestJoinGraph_Resolve(t *testing.T) {
	g := DefaultJoinGraph()

	tests := []struct {
		name       string
		anchor     Table
		referenced []Table
		expected   []Join
	}{
		{
			name:       "anchor only",
			anchor:     TableContracts,
			referenced: []Table{TableContracts},
			expected:   nil,
		},
		{
			name:       "direct neighbour",
			anchor:     TableContracts,
			referenced: []Table{TableUsers},
			expected:   []Join{{Table: TableUsers, On: "contracts.created_by = users.id"}},
		},
		{
			name:       "child table is not joined",
			anchor:     TableUsers,
			referenced: []Table{TableAuditLogs},
			expected:   nil,
		},
		{
			name:       "documents from contracts anchor",
			anchor:     TableContracts,
			referenced: []Table{TableDocuments, TableWorkflows},
			expected:   nil,
		},
		{
			name:       "audit logs never reach workflows",
			anchor:     TableAuditLogs,
			referenced: []Table{TableWorkflows, TableOrganizations},
			expected: []Join{
				{Table: TableUsers, On: "audit_logs.user_id = users.id"},
				{Table: TableOrganizations, On: "users.organization_id = organizations.id"},
			},
		},
		{
			name:       "two hops joins intermediate first",
			anchor:     TableWorkflowSteps,
			referenced: []Table{TableContracts},
			expected: []Join{
				{Table: TableWorkflows, On: "workflow_steps.workflow_id = workflows.id"},
				{Table: TableContracts, On: "workflows.contract_id = contracts.id"},
			},
		},
		{
			name:       "shared intermediate joined once",
			anchor:     TableWorkflowSteps,
			referenced: []Table{TableContracts, TableWorkflows},
			expected: []Join{
				{Table: TableWorkflows, On: "workflow_steps.workflow_id = workflows.id"},
				{Table: TableContracts, On: "workflows.contract_id = contracts.id"},
			},
		},
		{
			name:       "unreachable table skipped",
			anchor:     TableContracts,
			referenced: []Table{Table("invoices"), TableOrganizations},
			expected:   []Join{{Table: TableOrganizations, On: "contracts.organization_id = organizations.id"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Resolve(tt.anchor, tt.referenced)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestJoinGraph_Custom(t *testing.T) {
	g := NewJoinGraph([]ForeignKey{
		{From: Table("invoices"), Column: "contract_id", To: TableContracts, RefColumn: "id"},
	})

	got := g.Resolve(Table("invoices"), []Table{TableContracts, TableUsers})
	expected := []Join{{Table: TableContracts, On: "invoices.contract_id = contracts.id"}}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestResolveTable(t *testing.T) {
	if ResolveTable("contracts") != TableContracts {
		t.Error("Expected contracts to resolve")
	}
	if got := ResolveTable("invoices"); got != Table("invoices") || got.IsKnown() {
		t.Errorf("Expected unknown pass-through, got %q", got)
	}
	if anchorPrefix("contracts.id") != "contracts" || anchorPrefix("id") != "id" {
		t.Error("Unexpected anchorPrefix result")
	}
	if _, ok := fieldTable("id"); ok {
		t.Error("Expected unqualified field to reference no table")
	}
}

func TestDialectByName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"", "duckdb"},
		{"duckdb", "duckdb"},
		{"SQLite", "sqlite"},
		{"d1", "sqlite"},
		{"mysql", "mysql"},
		{" mariadb ", "mysql"},
	}
	for _, tt := range tests {
		d, err := DialectByName(tt.name)
		if err != nil {
			t.Errorf("%q: unexpected error %v", tt.name, err)
			continue
		}
		if d.Name() != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, d.Name())
		}
	}

	if _, err := DialectByName("oracle"); !errors.Is(err, ErrUnknownDialect) {
		t.Errorf("Expected ErrUnknownDialect, got %v", err)
	}
}

func TestAllowList_ValidateField(t *testing.T) {
	a := DefaultAllowList()

	valid := []string{"contracts.id", "workflow_steps.assignee_id", "organizations.plan", "audit_logs.action"}
	for _, f := range valid {
		if err := a.ValidateField(f); err != nil {
			t.Errorf("%q: unexpected error %v", f, err)
		}
	}

	invalid := []string{"contracts", "contracts.", ".id", "contracts.password", "invoices.id"}
	for _, f := range invalid {
		err := a.ValidateField(f)
		if !errors.Is(err, ErrUnknownField) {
			t.Errorf("%q: expected ErrUnknownField, got %v", f, err)
		}
	}
}

func TestDefaultSchema_CoversJoinColumns(t *testing.T) {
	a := DefaultAllowList()
	for _, fk := range DefaultForeignKeys() {
		if err := a.ValidateField(string(fk.From) + "." + fk.Column); err != nil {
			t.Errorf("Foreign key column not in schema: %v", err)
		}
		if err := a.ValidateField(string(fk.To) + "." + fk.RefColumn); err != nil {
			t.Errorf("Referenced column not in schema: %v", err)
		}
	}
}
