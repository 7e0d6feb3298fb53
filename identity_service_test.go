package accounts_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*accounts.Service, accounts.Users, *recordingSink) {
	t.Helper()

	repo := accounts.NewUsersRepository(newTestDB(t))
	sink := &recordingSink{}
	service := accounts.NewService(repo, accounts.NewHasher(bcrypt.MinCost)).
		WithLogger(nopLogger{}).
		WithActivitySink(sink)

	return service, repo, sink
}

func signupInput(email, username string) accounts.SignupInput {
	return accounts.SignupInput{
		Email:     email,
		Username:  username,
		Password:  "secret1",
		FirstName: "A",
		LastName:  "B",
	}
}

func TestService_SignupAndLogin(t *testing.T) {
	ctx := context.Background()
	service, _, sink := newTestService(t)

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Positive(t, user.ID)
	assert.NotEqual(t, "secret1", user.HashedPassword)

	safe := user.Safe()
	assert.Equal(t, accounts.SafeUser{ID: user.ID, FirstName: "A", LastName: "B", Username: "abcde", Email: "a@x.com"}, safe)

	loggedIn, err := service.Login(ctx, "a@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, loggedIn)
	assert.Equal(t, user.ID, loggedIn.ID)

	byUsername, err := service.Login(ctx, "abcde", "secret1")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, user.ID, byUsername.ID)

	wrong, err := service.Login(ctx, "abcde", "wrong")
	assert.NoError(t, err)
	assert.Nil(t, wrong)

	assert.Equal(t, []accounts.ActivityEventType{
		accounts.ActivityEventSignup,
		accounts.ActivityEventLoginSuccess,
		accounts.ActivityEventLoginSuccess,
		accounts.ActivityEventLoginFailure,
	}, sink.Types())
}

func TestService_SignupNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t)

	user, err := service.Signup(ctx, signupInput(" John@Smith.COM ", "JohnSmith"))
	require.NoError(t, err)
	assert.Equal(t, "john@smith.com", user.Email)

	loggedIn, err := service.Login(ctx, "JOHN@smith.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, loggedIn)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestService_SignupDuplicates(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t)

	_, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  accounts.SignupInput
		fields []string
	}{
		{
			name:   "email",
			input:  signupInput("A@X.com", "other"),
			fields: []string{accounts.FieldEmail},
		},
		{
			name:   "username",
			input:  signupInput("other@x.com", "abcde"),
			fields: []string{accounts.FieldUsername},
		},
		{
			name:   "both",
			input:  signupInput("a@x.com", "abcde"),
			fields: []string{accounts.FieldEmail, accounts.FieldUsername},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Signup(ctx, tt.input)
			assert.Nil(t, user)

			var dup *accounts.DuplicateFieldError
			require.True(t, goerrors.As(err, &dup), "expected duplicate error, got %v", err)
			assert.Equal(t, tt.fields, dup.Fields)

			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestService_SignupLateUniqueViolation(t *testing.T) {
	ctx := context.Background()

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, mock.Anything).Return(nil, accounts.ErrUserNotFound)
	directory.On("Create", mock.Anything, mock.AnythingOfType("*accounts.User")).
		Return(nil, &accounts.UniqueViolationError{Field: accounts.FieldUsername, Err: errors.New("23505")})

	service := accounts.NewService(directory, accounts.NewHasher(bcrypt.MinCost)).WithLogger(nopLogger{})

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	assert.Nil(t, user)

	var dup *accounts.DuplicateFieldError
	require.True(t, goerrors.As(err, &dup), "expected duplicate error, got %v", err)
	assert.Equal(t, []string{accounts.FieldUsername}, dup.Fields)

	directory.AssertExpectations(t)
}

func TestService_SignupLateUniqueViolationWithoutField(t *testing.T) {
	ctx := context.Background()

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, "a@x.com").Return(nil, accounts.ErrUserNotFound).Once()
	directory.On("FindByEmailOrUsername", mock.Anything, "abcde").Return(nil, accounts.ErrUserNotFound).Once()
	directory.On("Create", mock.Anything, mock.Anything).Return(nil, &accounts.UniqueViolationError{})
	directory.On("FindByEmailOrUsername", mock.Anything, "a@x.com").Return(&accounts.User{ID: 5, Email: "a@x.com", Username: "winner"}, nil)
	directory.On("FindByEmailOrUsername", mock.Anything, "abcde").Return(nil, accounts.ErrUserNotFound)

	service := accounts.NewService(directory, accounts.NewHasher(bcrypt.MinCost)).WithLogger(nopLogger{})

	_, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))

	var dup *accounts.DuplicateFieldError
	require.True(t, goerrors.As(err, &dup), "expected duplicate error, got %v", err)
	assert.Equal(t, []string{accounts.FieldEmail}, dup.Fields)
}

func TestService_SignupStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, mock.Anything).Return(nil, accounts.ErrUserNotFound)
	directory.On("Create", mock.Anything, mock.Anything).Return(nil, boom)

	service := accounts.NewService(directory, accounts.NewHasher(bcrypt.MinCost)).WithLogger(nopLogger{})

	_, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	assert.ErrorIs(t, err, boom)

	var dup *accounts.DuplicateFieldError
	assert.False(t, goerrors.As(err, &dup))
}

func TestService_SignupStoresDigest(t *testing.T) {
	ctx := context.Background()

	hasher := &MockHasher{}
	hasher.On("Hash", mock.Anything).Return("hashed", nil)

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, mock.Anything).Return(nil, accounts.ErrUserNotFound)
	directory.On("Create", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
		return u.HashedPassword == "hashed" && u.Email == "a@x.com"
	})).Return(&accounts.User{ID: 1, Email: "a@x.com", Username: "abcde", HashedPassword: "hashed"}, nil)

	service := accounts.NewService(directory, hasher).WithLogger(nopLogger{})

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)

	hasher.AssertCalled(t, "Hash", "secret1")
	directory.AssertExpectations(t)
}

func TestService_LoginMismatchesAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	service, _, sink := newTestService(t)

	_, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)

	unknown, errUnknown := service.Login(ctx, "nobody@x.com", "secret1")
	wrong, errWrong := service.Login(ctx, "a@x.com", "not-it")

	assert.Nil(t, unknown)
	assert.Nil(t, wrong)
	assert.NoError(t, errUnknown)
	assert.NoError(t, errWrong)

	types := sink.Types()
	assert.Equal(t, accounts.ActivityEventLoginFailure, types[len(types)-1])
	assert.Equal(t, accounts.ActivityEventLoginFailure, types[len(types)-2])
}

func TestService_LoginRejectsPasswordsPastBcryptLimit(t *testing.T) {
	ctx := context.Background()
	service, _, sink := newTestService(t)

	stored := strings.Repeat("p", accounts.MaxPasswordBytes)
	input := signupInput("a@x.com", "abcde")
	input.Password = stored

	_, err := service.Signup(ctx, input)
	require.NoError(t, err)

	for _, attempt := range []string{stored + "-not-my-password", stored + "p"} {
		user, err := service.Login(ctx, "abcde", attempt)
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.Equal(t, accounts.ActivityEventLoginFailure, sink.Types()[len(sink.Types())-1])
	}

	user, err := service.Login(ctx, "abcde", stored)
	require.NoError(t, err)
	require.NotNil(t, user)
}

func TestService_SignupRejectsPasswordPastBcryptLimit(t *testing.T) {
	service, repo, _ := newTestService(t)

	input := signupInput("a@x.com", "abcde")
	input.Password = strings.Repeat("p", accounts.MaxPasswordBytes+1)

	user, err := service.Signup(context.Background(), input)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, accounts.ErrPasswordTooLong)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestService_LoginUnknownStillVerifies(t *testing.T) {
	ctx := context.Background()

	hasher := &MockHasher{}
	hasher.On("Hash", mock.Anything).Return("dummy-digest", nil)
	hasher.On("Verify", "secret1", "dummy-digest").Return(false)

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, "nobody").Return(nil, accounts.ErrUserNotFound)

	service := accounts.NewService(directory, hasher).WithLogger(nopLogger{})

	user, err := service.Login(ctx, "nobody", "secret1")
	assert.NoError(t, err)
	assert.Nil(t, user)

	hasher.AssertCalled(t, "Verify", "secret1", "dummy-digest")
}

func TestService_LoginStoreFailure(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("database is locked")

	directory := &MockDirectory{}
	directory.On("FindByEmailOrUsername", mock.Anything, "abcde").Return(nil, boom)

	service := accounts.NewService(directory, accounts.NewHasher(bcrypt.MinCost)).WithLogger(nopLogger{})

	user, err := service.Login(ctx, "abcde", "secret1")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, boom)
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	service, _, sink := newTestService(t)

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)
	_, err = service.Signup(ctx, signupInput("taken@x.com", "taken"))
	require.NoError(t, err)

	t.Run("applies non empty fields", func(t *testing.T) {
		updated, err := service.UpdateProfile(ctx, user.ID, accounts.ProfileChanges{
			FirstName: "Charlie",
			Email:     "Charlie@X.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "Charlie", updated.FirstName)
		assert.Equal(t, "B", updated.LastName)
		assert.Equal(t, "charlie@x.com", updated.Email)
		assert.Equal(t, "abcde", updated.Username)
		assert.Equal(t, accounts.ActivityEventProfileUpdated, sink.Types()[len(sink.Types())-1])

		loggedIn, err := service.Login(ctx, "charlie@x.com", "secret1")
		require.NoError(t, err)
		require.NotNil(t, loggedIn)
	})

	t.Run("keeping own values is not a duplicate", func(t *testing.T) {
		updated, err := service.UpdateProfile(ctx, user.ID, accounts.ProfileChanges{
			Email:    "charlie@x.com",
			Username: "abcde",
		})
		require.NoError(t, err)
		assert.Equal(t, "abcde", updated.Username)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := service.UpdateProfile(ctx, user.ID, accounts.ProfileChanges{Username: "taken"})

		var dup *accounts.DuplicateFieldError
		require.True(t, goerrors.As(err, &dup), "expected duplicate error, got %v", err)
		assert.Equal(t, []string{accounts.FieldUsername}, dup.Fields)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := service.UpdateProfile(ctx, 999, accounts.ProfileChanges{FirstName: "Nobody"})
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})
}

func TestService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	service, repo, sink := newTestService(t)

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)

	require.NoError(t, service.DeleteAccount(ctx, user.ID))

	_, err = service.FindUser(ctx, user.ID)
	assert.ErrorIs(t, err, accounts.ErrUserNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Equal(t, accounts.ActivityEventAccountDeleted, sink.Types()[len(sink.Types())-1])
	assert.ErrorIs(t, service.DeleteAccount(ctx, user.ID), accounts.ErrUserNotFound)
}

func TestService_ActivitySinkErrorsAreSwallowed(t *testing.T) {
	ctx := context.Background()
	repo := accounts.NewUsersRepository(newTestDB(t))

	logger := &MockLogger{}
	logger.On("Warn", "activity sink record error", mock.Anything).Return()

	service := accounts.NewService(repo, accounts.NewHasher(bcrypt.MinCost)).
		WithLogger(logger).
		WithActivitySink(accounts.ActivitySinkFunc(func(context.Context, accounts.ActivityEvent) error {
			return errors.New("sink down")
		}))

	user, err := service.Signup(ctx, signupInput("a@x.com", "abcde"))
	require.NoError(t, err)
	assert.NotNil(t, user)

	logger.AssertCalled(t, "Warn", "activity sink record error", mock.Anything)
}
