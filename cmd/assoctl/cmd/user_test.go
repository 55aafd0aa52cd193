package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"asso_funds/internal/config"
	"asso_funds/internal/db"
	"asso_funds/internal/domain"
	"asso_funds/internal/store/sqlstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migratedSQLite points the CLI at a fresh SQLite file through the environment.
func migratedSQLite(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "asso.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", path)
	t.Setenv("REDIS_ADDR", "")

	cfg := config.Defaults()
	cfg.DBDriver, cfg.DBName = "sqlite", path
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// flag values outlive a single Execute
	createUsername, createPassword, createRole = "", "", string(domain.RoleMember)
	setRoleUsername, setRoleRole = "", ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func lookup(t *testing.T, path, username string) *domain.User {
	t.Helper()
	cfg := config.Defaults()
	cfg.DBDriver, cfg.DBName = "sqlite", path
	gdb, err := db.Open(cfg)
	require.NoError(t, err)
	st := sqlstore.New(gdb)
	defer st.Close()
	u, err := st.UserByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func TestUserCreateAndSetRole(t *testing.T) {
	path := migratedSQLite(t)

	out, err := run(t, "user", "create", "--username", "Treso", "--password", "password123", "--role", "treasurer")
	require.NoError(t, err)
	assert.Contains(t, out, "created treso (tresorier)")
	assert.Equal(t, domain.RoleTreasurer, lookup(t, path, "treso").Role)

	out, err = run(t, "user", "set-role", "--username", "treso", "--role", "PCO")
	require.NoError(t, err)
	assert.Contains(t, out, "treso is now PCO")
	assert.Equal(t, domain.RoleController, lookup(t, path, "treso").Role)
}

func TestUserCreateDefaultsToMember(t *testing.T) {
	path := migratedSQLite(t)
	_, err := run(t, "user", "create", "--username", "plain", "--password", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, lookup(t, path, "plain").Role)
}

func TestUserCommandErrors(t *testing.T) {
	migratedSQLite(t)

	_, err := run(t, "user", "create", "--username", "bad", "--password", "password123", "--role", "admin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = run(t, "user", "set-role", "--username", "ghost", "--role", "president")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
