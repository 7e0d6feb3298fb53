package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// newTestDB returns a migrated in-memory SQLite database
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := accounts.OpenDatabase(accounts.DialectSQLite, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, accounts.RunMigrations(context.Background(), db, accounts.DialectSQLite))
	return db
}

func seedUser(t *testing.T, repo accounts.UserDirectory, email, username string) *accounts.User {
	t.Helper()

	user, err := repo.Create(context.Background(), &accounts.User{
		Email:          email,
		Username:       username,
		FirstName:      "First",
		LastName:       "Last",
		HashedPassword: "digest",
	})
	require.NoError(t, err)
	return user
}
