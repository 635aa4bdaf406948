// internal/database/migrator.go
package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const defaultMigrationsTable = "schema_migrations"

// Migration is a reversible schema change. Statements run in order inside a
// single transaction.
type Migration struct {
	Version int64
	Name    string
	Up      []string
	Down    []string
}

type MigrationStatus struct {
	Version   int64      `db:"version"`
	Name      string     `db:"name"`
	AppliedAt *time.Time `db:"applied_at"`
}

func (s MigrationStatus) Applied() bool {
	return s.AppliedAt != nil
}

type Migrator struct {
	db         *sqlx.DB
	migrations []Migration
	table      string
}

type MigratorOption func(*Migrator)

// WithMigrationsTable overrides the bookkeeping table name.
func WithMigrationsTable(name string) MigratorOption {
	return func(m *Migrator) {
		m.table = name
	}
}

func NewMigrator(db *sqlx.DB, migrations []Migration, opts ...MigratorOption) *Migrator {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	m := &Migrator{db: db, migrations: sorted, table: defaultMigrationsTable}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OpenMigrator connects with lib/pq and returns a migrator over the built-in
// migration list.
func OpenMigrator(databaseURL string) (*Migrator, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect migrator: %w", err)
	}
	return NewMigrator(db, Migrations()), nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, m.table))
	if err != nil {
		return fmt.Errorf("create %s: %w", m.table, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int64]time.Time, error) {
	var rows []MigrationStatus
	query := fmt.Sprintf(`SELECT version, name, applied_at FROM %s ORDER BY version`, m.table)
	if err := m.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("read %s: %w", m.table, err)
	}

	out := make(map[int64]time.Time, len(rows))
	for _, r := range rows {
		if r.AppliedAt != nil {
			out[r.Version] = *r.AppliedAt
		}
	}
	return out, nil
}

// Up applies every pending migration and returns the ones it applied.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []Migration
	for _, mig := range m.migrations {
		if _, ok := done[mig.Version]; ok {
			continue
		}
		if err := m.run(ctx, mig, mig.Up, true); err != nil {
			return ran, err
		}
		logrus.WithFields(logrus.Fields{"version": mig.Version, "name": mig.Name}).Info("Migration applied")
		ran = append(ran, mig)
	}
	return ran, nil
}

// Down reverts the last steps applied migrations, newest first.
func (m *Migrator) Down(ctx context.Context, steps int) ([]Migration, error) {
	if steps <= 0 {
		return nil, nil
	}
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var reverted []Migration
	for i := len(m.migrations) - 1; i >= 0 && len(reverted) < steps; i-- {
		mig := m.migrations[i]
		if _, ok := done[mig.Version]; !ok {
			continue
		}
		if err := m.run(ctx, mig, mig.Down, false); err != nil {
			return reverted, err
		}
		logrus.WithFields(logrus.Fields{"version": mig.Version, "name": mig.Name}).Info("Migration reverted")
		reverted = append(reverted, mig)
	}
	return reverted, nil
}

func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		st := MigrationStatus{Version: mig.Version, Name: mig.Name}
		if at, ok := done[mig.Version]; ok {
			at := at
			st.AppliedAt = &at
		}
		out = append(out, st)
	}
	return out, nil
}

func (m *Migrator) run(ctx context.Context, mig Migration, statements []string, up bool) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", mig.Version, err)
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d %s: %w", mig.Version, mig.Name, err)
		}
	}

	if up {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf(`INSERT INTO %s (version, name, applied_at) VALUES ($1, $2, $3)`, m.table),
			mig.Version, mig.Name, time.Now().UTC())
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE version = $1`, m.table), mig.Version)
	}
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %d: %w", mig.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", mig.Version, err)
	}
	return nil
}
