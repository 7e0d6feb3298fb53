package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Logger is the logging contract used across the package. Arguments after
// the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds accounts options
type Config interface {
	GetEnvironment() string
	IsProduction() bool
	GetSigningKey() string
	GetTokenExpiration() time.Duration
	GetIssuer() string
	GetTokenCookieName() string
	GetTokenLookup() string
	GetAuthScheme() string
	GetBcryptCost() int
	GetCSRFEnabled() bool
}

// PasswordHasher hashes and verifies passwords. Verify never fails loudly,
// a malformed digest is just a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// TokenCodec issues and verifies session tokens.
type TokenCodec interface {
	Issue(subjectID int64) (string, time.Time, error)
	Verify(token string) (int64, bool)
	TTL() time.Duration
}

// UserDirectory is the uniqueness constrained user store.
//
// Lookups return ErrUserNotFound when nothing matches. Create and Update
// return *UniqueViolationError when email or username collide.
type UserDirectory interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByEmailOrUsername(ctx context.Context, credential string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, user *User) error
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print("[DBG] ACCOUNTS " + format(msg, args...))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print("[INF] ACCOUNTS " + format(msg, args...))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Print("[WRN] ACCOUNTS " + format(msg, args...))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print("[ERR] ACCOUNTS " + format(msg, args...))
}

func format(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(msg, "\n"))
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	b.WriteString("\n")
	return b.String()
}

func normalizeLogger(logger Logger) Logger {
	if logger == nil {
		return defLogger{}
	}
	return logger
}
