package accounts_test

import (
	"context"
	"sync"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/mock"
)

// MockDirectory implements accounts.UserDirectory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Create(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) FindByEmailOrUsername(ctx context.Context, credential string) (*accounts.User, error) {
	args := m.Called(ctx, credential)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) FindByID(ctx context.Context, id int64) (*accounts.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) Update(ctx context.Context, user *accounts.User) (*accounts.User, error) {
	args := m.Called(ctx, user)
	if u, ok := args.Get(0).(*accounts.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDirectory) Delete(ctx context.Context, user *accounts.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockHasher implements accounts.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, digest string) bool {
	args := m.Called(password, digest)
	return args.Bool(0)
}

// recordingSink collects activity events
type recordingSink struct {
	mu     sync.Mutex
	events []accounts.ActivityEvent
}

func (s *recordingSink) Record(_ context.Context, event accounts.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Types() []accounts.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]accounts.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

// nopLogger keeps test output quiet
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
