// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package analytics

import "strings"

// Table names a relational table the compiler can target.
type Table string

const (
	TableContracts     Table = "contracts"
	TableWorkflows     Table = "workflows"
	TableWorkflowSteps Table = "workflow_steps"
	TableDocuments     Table = "documents"
	TableUsers         Table = "users"
	TableOrganizations Table = "organizations"
	TableAuditLogs     Table = "audit_logs"
)

var knownTables = map[string]Table{
	"contracts":      TableContracts,
	"workflows":      TableWorkflows,
	"workflow_steps": TableWorkflowSteps,
	"documents":      TableDocuments,
	"users":          TableUsers,
	"organizations":  TableOrganizations,
	"audit_logs":     TableAuditLogs,
}

// ResolveTable maps a field prefix to a known table. Unknown prefixes pass
// through unchanged and fail later in the executor.
func ResolveTable(prefix string) Table {
	if t, ok := knownTables[prefix]; ok {
		return t
	}
	return Table(prefix)
}

// IsKnown reports whether t is part of the KontrakPro schema.
func (t Table) IsKnown() bool {
	_, ok := knownTables[string(t)]
	return ok
}

// anchorPrefix returns the text before the first dot, or the whole field.
func anchorPrefix(field string) string {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		return field[:i]
	}
	return field
}

// fieldTable returns the table qualifier of a dotted field. Unqualified
// fields reference no table.
func fieldTable(field string) (Table, bool) {
	i := strings.IndexByte(field, '.')
	if i <= 0 {
		return "", false
	}
	return ResolveTable(field[:i]), true
}

// ForeignKey declares From.Column referencing To.RefColumn.
type ForeignKey struct {
	From      Table
	Column    string
	To        Table
	RefColumn string
}

// Condition renders the join predicate.
func (fk ForeignKey) Condition() string {
	return string(fk.From) + "." + fk.Column + " = " + string(fk.To) + "." + fk.RefColumn
}

// DefaultForeignKeys is the KontrakPro relationship set.
func DefaultForeignKeys() []ForeignKey {
	return []ForeignKey{
		{From: TableContracts, Column: "created_by", To: TableUsers, RefColumn: "id"},
		{From: TableContracts, Column: "organization_id", To: TableOrganizations, RefColumn: "id"},
		{From: TableUsers, Column: "organization_id", To: TableOrganizations, RefColumn: "id"},
		{From: TableWorkflows, Column: "contract_id", To: TableContracts, RefColumn: "id"},
		{From: TableWorkflowSteps, Column: "workflow_id", To: TableWorkflows, RefColumn: "id"},
		{From: TableWorkflowSteps, Column: "assignee_id", To: TableUsers, RefColumn: "id"},
		{From: TableDocuments, Column: "contract_id", To: TableContracts, RefColumn: "id"},
		{From: TableDocuments, Column: "uploaded_by", To: TableUsers, RefColumn: "id"},
		{From: TableAuditLogs, Column: "user_id", To: TableUsers, RefColumn: "id"},
	}
}

// Join is one LEFT JOIN emitted by the compiler.
type Join struct {
	Table Table
	On    string
}

type joinEdge struct {
	to Table
	on string
}

// JoinGraph is an adjacency map of foreign-key edges, keyed by the
// referencing table. Only many-to-one edges are traversed, so a join never
// multiplies the anchor's rows.
type JoinGraph struct {
	edges map[Table][]joinEdge
}

// NewJoinGraph builds a graph from foreign keys. Declaration order fixes the
// neighbour order, which keeps path resolution deterministic.
func NewJoinGraph(fks []ForeignKey) *JoinGraph {
	g := &JoinGraph{edges: make(map[Table][]joinEdge)}
	for _, fk := range fks {
		g.edges[fk.From] = append(g.edges[fk.From], joinEdge{to: fk.To, on: fk.Condition()})
	}
	return g
}

// DefaultJoinGraph returns the graph over DefaultForeignKeys.
func DefaultJoinGraph() *JoinGraph {
	return NewJoinGraph(DefaultForeignKeys())
}

// Resolve returns the joins needed to reach every referenced table from the
// anchor. Each table is joined once, in first-reference order, with any
// intermediate tables on its shortest path joined before it. Tables that
// are unreachable along foreign keys, including parents-to-children, are
// skipped and left to fail in the executor.
func (g *JoinGraph) Resolve(anchor Table, referenced []Table) []Join {
	joined := map[Table]bool{anchor: true}
	var joins []Join

	for _, target := range referenced {
		if joined[target] {
			continue
		}
		for _, step := range g.path(anchor, target) {
			if joined[step.Table] {
				continue
			}
			joined[step.Table] = true
			joins = append(joins, step)
		}
	}
	return joins
}

// path runs a breadth-first search and returns the edges from anchor to
// target, or nil when target is unreachable.
func (g *JoinGraph) path(anchor, target Table) []Join {
	type visit struct {
		parent Table
		on     string
	}
	seen := map[Table]visit{anchor: {}}
	queue := []Table{anchor}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			break
		}
		for _, e := range g.edges[current] {
			if _, ok := seen[e.to]; ok {
				continue
			}
			seen[e.to] = visit{parent: current, on: e.on}
			queue = append(queue, e.to)
		}
	}

	if _, ok := seen[target]; !ok {
		return nil
	}

	var reversed []Join
	for t := target; t != anchor; t = seen[t].parent {
		reversed = append(reversed, Join{Table: t, On: seen[t].on})
	}
	steps := make([]Join, len(reversed))
	for i := range reversed {
		steps[i] = reversed[len(reversed)-1-i]
	}
	return steps
}

// DefaultSchema lists the columns of every KontrakPro analytics table.
func DefaultSchema() map[Table][]string {
	return map[Table][]string{
		TableContracts: {
			"id", "title", "contract_type", "status", "value", "currency",
			"organization_id", "created_by", "start_date", "end_date",
			"signed_at", "created_at", "updated_at",
		},
		TableWorkflows: {
			"id", "contract_id", "name", "status", "created_by",
			"completed_at", "created_at", "updated_at",
		},
		TableWorkflowSteps: {
			"id", "workflow_id", "step_order", "name", "status", "assignee_id",
			"due_date", "completed_at", "created_at",
		},
		TableDocuments: {
			"id", "contract_id", "file_name", "mime_type", "size_bytes",
			"uploaded_by", "created_at",
		},
		TableUsers: {
			"id", "email", "name", "role", "organization_id", "created_at",
		},
		TableOrganizations: {
			"id", "name", "industry", "plan", "created_at",
		},
		TableAuditLogs: {
			"id", "user_id", "action", "entity_type", "entity_id", "created_at",
		},
	}
}
