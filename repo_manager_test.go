package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryManager_Validate(t *testing.T) {
	assert.NoError(t, accounts.NewRepositoryManager(newTestDB(t)).Validate())

	empty := accounts.NewRepositoryManager(nil)
	assert.Error(t, empty.Validate())
	assert.Panics(t, empty.MustValidate)
}

func TestRepositoryManager_RunInTx(t *testing.T) {
	ctx := context.Background()
	repos := accounts.NewRepositoryManager(newTestDB(t))

	t.Run("commits", func(t *testing.T) {
		err := repos.RunInTx(ctx, nil, func(ctx context.Context, users accounts.Users) error {
			seedUser(t, users, "a@x.com", "abcde")
			return nil
		})
		require.NoError(t, err)

		_, err = repos.Users().FindByEmailOrUsername(ctx, "abcde")
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := repos.RunInTx(ctx, nil, func(ctx context.Context, users accounts.Users) error {
			seedUser(t, users, "b@x.com", "bbbbb")
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = repos.Users().FindByEmailOrUsername(ctx, "bbbbb")
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		called := false
		err := repos.RunInTx(cancelled, nil, func(context.Context, accounts.Users) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})
}
