package database

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsOrderedAndUnique(t *testing.T) {
	migs := Migrations()
	require.NotEmpty(t, migs)

	seen := map[int64]bool{}
	for i, m := range migs {
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		seen[m.Version] = true
		assert.NotEmpty(t, m.Up, m.Name)
		assert.NotEmpty(t, m.Down, m.Name)
		if i > 0 {
			assert.Greater(t, m.Version, migs[i-1].Version)
		}
	}
	assert.Equal(t, "CreateUsersTable", migs[0].Name)
}

func TestCreateUsersTableDownKeepsSchemaAndExtension(t *testing.T) {
	m := createUsersTable()

	for _, stmt := range m.Down {
		assert.NotContains(t, stmt, "DROP SCHEMA")
		assert.NotContains(t, stmt, "DROP EXTENSION")
	}
	assert.Equal(t, "DROP TABLE IF EXISTS auth.users", m.Down[len(m.Down)-1])

	var created, dropped int
	for _, stmt := range m.Up {
		if strings.Contains(stmt, "CREATE INDEX") || strings.Contains(stmt, "CREATE UNIQUE INDEX") {
			created++
		}
	}
	for _, stmt := range m.Down {
		if strings.HasPrefix(stmt, "DROP INDEX") {
			dropped++
		}
	}
	assert.Equal(t, 9, created)
	assert.Equal(t, created, dropped)
}

func TestNewMigratorSortsByVersion(t *testing.T) {
	m := NewMigrator(nil, []Migration{{Version: 3}, {Version: 1}, {Version: 2}}, WithMigrationsTable("custom"))
	require.Len(t, m.migrations, 3)
	assert.Equal(t, int64(1), m.migrations[0].Version)
	assert.Equal(t, int64(3), m.migrations[2].Version)
	assert.Equal(t, "custom", m.table)
}

func TestLoadAchievementCatalog(t *testing.T) {
	catalog, err := LoadAchievementCatalog()
	require.NoError(t, err)
	require.NotEmpty(t, catalog)

	ids := map[string]bool{}
	for _, a := range catalog {
		assert.False(t, ids[a.ID])
		ids[a.ID] = true
		assert.NotEmpty(t, a.UnlockCriteria.String("type"), a.ID)
	}
	assert.True(t, ids["onboarding_complete"])
}

func TestCreateUsersTableAgainstDatabase(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	defer db.Close()

	var exists bool
	require.NoError(t, db.Get(&exists, `SELECT to_regclass('auth.users') IS NOT NULL`))
	if exists {
		t.Skip("auth.users already exists in this database")
	}

	m := NewMigrator(db, []Migration{createUsersTable()}, WithMigrationsTable("schema_migrations_users_test"))
	defer db.Exec(`DROP TABLE IF EXISTS schema_migrations_users_test`)

	ran, err := m.Up(ctx)
	require.NoError(t, err)
	require.Len(t, ran, 1)

	var columns []string
	require.NoError(t, db.Select(&columns, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = 'auth' AND table_name = 'users'`))
	for _, col := range []string{"id", "email", "encrypted_password", "confirmed_at", "is_sso_user", "is_anonymous", "deleted_at"} {
		assert.Contains(t, columns, col)
	}

	var indexes []string
	require.NoError(t, db.Select(&indexes, `SELECT indexname FROM pg_indexes WHERE schemaname = 'auth' AND tablename = 'users'`))
	for _, idx := range []string{"confirmation_token_idx", "users_email_partial_key", "users_instance_id_email_idx", "users_is_anonymous_idx"} {
		assert.Contains(t, indexes, idx)
	}

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status[0].Applied())

	reverted, err := m.Down(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reverted, 1)

	require.NoError(t, db.Get(&exists, `SELECT to_regclass('auth.users') IS NOT NULL`))
	assert.False(t, exists)

	var schema bool
	require.NoError(t, db.Get(&schema, `SELECT EXISTS(SELECT 1 FROM pg_namespace WHERE nspname = 'auth')`))
	assert.True(t, schema)
}
