// KontrakPro - Contract Lifecycle Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kontrakpro

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kontrakpro/internal/logging"
)

// SeedOptions sizes the demo data set.
type SeedOptions struct {
	Organizations int
	UsersPerOrg   int
	Contracts     int
	DaysOfHistory int
	RandomSeed    int64
	Now           time.Time
}

// DefaultSeedOptions returns the demo data set used by database.seed.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Organizations: 4,
		UsersPerOrg:   5,
		Contracts:     240,
		DaysOfHistory: 400,
		RandomSeed:    20260301,
		Now:           time.Now().UTC(),
	}
}

var (
	seedIndustries    = []string{"construction", "healthcare", "logistics", "software"}
	seedPlans         = []string{"starter", "business", "enterprise"}
	seedRoles         = []string{"viewer", "editor", "admin"}
	seedContractTypes = []string{"nda", "msa", "sow", "purchase", "lease", "employment"}
	seedStatuses      = []string{"draft", "review", "approved", "signed", "expired", "terminated"}
	seedCurrencies    = []string{"USD", "EUR", "IDR"}
	seedStepNames     = []string{"legal review", "finance approval", "signature"}
	seedNames         = []string{
		"Alice", "Bima", "Chandra", "Dewi", "Eka", "Farah", "Gilang", "Hana",
		"Indra", "Joko", "Kartika", "Lestari", "Maya", "Nadia", "Oscar", "Putri",
		"Rizky", "Sari", "Tono", "Wulan",
	}
)

// SeedDemoData inserts demo rows into every analytics table when the
// contracts table is empty. It is deterministic for a given RandomSeed.
func (db *DB) SeedDemoData(ctx context.Context) error {
	return db.SeedDemoDataWithOptions(ctx, DefaultSeedOptions())
}

// SeedDemoDataWithOptions is SeedDemoData with an explicit data set size.
func (db *DB) SeedDemoDataWithOptions(ctx context.Context, opts SeedOptions) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var existing int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM contracts").Scan(&existing); err != nil {
		return fmt.Errorf("failed to count contracts: %w", err)
	}
	if existing > 0 {
		logging.Debug().Int64("contracts", existing).Msg("Skipping demo seed, contracts already present")
		return nil
	}

	logging.Info().Int("contracts", opts.Contracts).Msg("Seeding database with demo data...")

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	s := &seeder{
		ctx:  ctx,
		tx:   tx,
		rng:  rand.New(rand.NewSource(opts.RandomSeed)), //nolint:gosec // demo data, not security sensitive
		opts: opts,
	}
	if err := s.run(); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	logging.Info().
		Int("organizations", opts.Organizations).
		Int("users", opts.Organizations*opts.UsersPerOrg).
		Int("contracts", opts.Contracts).
		Int("days", opts.DaysOfHistory).
		Msg("Demo data seeded successfully")
	return nil
}

type seeder struct {
	ctx  context.Context
	tx   *sql.Tx
	rng  *rand.Rand
	opts SeedOptions

	orgIDs  []string
	userIDs map[string][]string // organization id -> user ids
}

func (s *seeder) run() error {
	if err := s.organizations(); err != nil {
		return err
	}
	if err := s.users(); err != nil {
		return err
	}
	return s.contracts()
}

func (s *seeder) exec(query string, args ...interface{}) error {
	_, err := s.tx.ExecContext(s.ctx, query, args...)
	return err
}

func (s *seeder) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

// createdAt returns a timestamp within the history window.
func (s *seeder) createdAt() time.Time {
	days := s.opts.DaysOfHistory
	if days <= 0 {
		days = 1
	}
	offset := time.Duration(s.rng.Intn(days*24*60)) * time.Minute
	return s.opts.Now.Add(-offset).Truncate(time.Second)
}

func (s *seeder) organizations() error {
	start := s.opts.Now.AddDate(0, 0, -s.opts.DaysOfHistory-30)
	for i := 0; i < s.opts.Organizations; i++ {
		id := uuid.New().String()
		err := s.exec(`INSERT INTO organizations (id, name, industry, plan, created_at) VALUES (?, ?, ?, ?, ?)`,
			id,
			fmt.Sprintf("Organization %d", i+1),
			seedIndustries[i%len(seedIndustries)],
			s.pick(seedPlans),
			start,
		)
		if err != nil {
			return fmt.Errorf("failed to seed organization %d: %w", i, err)
		}
		s.orgIDs = append(s.orgIDs, id)
	}
	return nil
}

func (s *seeder) users() error {
	s.userIDs = make(map[string][]string, len(s.orgIDs))
	start := s.opts.Now.AddDate(0, 0, -s.opts.DaysOfHistory-30)
	n := 0
	for _, orgID := range s.orgIDs {
		for j := 0; j < s.opts.UsersPerOrg; j++ {
			id := uuid.New().String()
			name := seedNames[n%len(seedNames)]
			err := s.exec(`INSERT INTO users (id, email, name, role, organization_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
				id,
				fmt.Sprintf("user%d@example.com", n+1),
				name,
				seedRoles[j%len(seedRoles)],
				orgID,
				start,
			)
			if err != nil {
				return fmt.Errorf("failed to seed user %d: %w", n, err)
			}
			s.userIDs[orgID] = append(s.userIDs[orgID], id)
			n++
		}
	}
	return nil
}

func (s *seeder) contracts() error {
	for i := 0; i < s.opts.Contracts; i++ {
		orgID := s.orgIDs[s.rng.Intn(len(s.orgIDs))]
		users := s.userIDs[orgID]
		owner := users[s.rng.Intn(len(users))]
		created := s.createdAt()
		status := s.pick(seedStatuses)

		var signedAt interface{}
		if status == "signed" || status == "expired" || status == "terminated" {
			signedAt = created.Add(time.Duration(1+s.rng.Intn(20)) * 24 * time.Hour)
		}
		startDate := created.AddDate(0, 0, 7).Truncate(24 * time.Hour)
		value := float64(1000+s.rng.Intn(499000)) + float64(s.rng.Intn(100))/100

		contractID := uuid.New().String()
		err := s.exec(`
			INSERT INTO contracts (
				id, title, contract_type, status, value, currency, organization_id,
				created_by, start_date, end_date, signed_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			contractID,
			fmt.Sprintf("Contract %04d", i+1),
			s.pick(seedContractTypes),
			status,
			value,
			s.pick(seedCurrencies),
			orgID,
			owner,
			startDate,
			startDate.AddDate(1, 0, 0),
			signedAt,
			created,
			created,
		)
		if err != nil {
			return fmt.Errorf("failed to seed contract %d: %w", i, err)
		}

		if err := s.workflow(contractID, owner, users, created, status); err != nil {
			return err
		}
		if err := s.documents(contractID, users, created); err != nil {
			return err
		}
		if err := s.exec(`INSERT INTO audit_logs (id, user_id, action, entity_type, entity_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), owner, "contract.create", "contract", contractID, created); err != nil {
			return fmt.Errorf("failed to seed audit log: %w", err)
		}
	}
	return nil
}

func (s *seeder) workflow(contractID, owner string, users []string, created time.Time, contractStatus string) error {
	status := "in_progress"
	var completedAt interface{}
	if contractStatus != "draft" && contractStatus != "review" {
		status = "completed"
		completedAt = created.Add(time.Duration(2+s.rng.Intn(14)) * 24 * time.Hour)
	}

	workflowID := uuid.New().String()
	if err := s.exec(`
		INSERT INTO workflows (id, contract_id, name, status, created_by, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		workflowID, contractID, "approval", status, owner, completedAt, created, created); err != nil {
		return fmt.Errorf("failed to seed workflow: %w", err)
	}

	for order, name := range seedStepNames {
		stepStatus := "pending"
		var stepDone interface{}
		if status == "completed" {
			stepStatus = "completed"
			stepDone = created.Add(time.Duration(order+1) * 24 * time.Hour)
		}
		if err := s.exec(`
			INSERT INTO workflow_steps (id, workflow_id, step_order, name, status, assignee_id, due_date, completed_at, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), workflowID, order+1, name, stepStatus,
			users[s.rng.Intn(len(users))],
			created.AddDate(0, 0, 3*(order+1)).Truncate(24*time.Hour),
			stepDone, created); err != nil {
			return fmt.Errorf("failed to seed workflow step: %w", err)
		}
	}
	return nil
}

func (s *seeder) documents(contractID string, users []string, created time.Time) error {
	count := 1 + s.rng.Intn(3)
	for i := 0; i < count; i++ {
		if err := s.exec(`
			INSERT INTO documents (id, contract_id, file_name, mime_type, size_bytes, uploaded_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), contractID,
			fmt.Sprintf("attachment-%d.pdf", i+1), "application/pdf",
			int64(20_000+s.rng.Intn(5_000_000)),
			users[s.rng.Intn(len(users))],
			created.Add(time.Duration(i)*time.Hour)); err != nil {
			return fmt.Errorf("failed to seed document: %w", err)
		}
	}
	return nil
}
