package accounts

import (
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUserNotFound           = "USER_NOT_FOUND"
	TextCodeInvalidCreds           = "INVALID_CREDENTIALS"
	TextCodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	TextCodeTokenExpired           = "TOKEN_EXPIRED"
	TextCodeTokenMalformed         = "TOKEN_MALFORMED"
	TextCodeEmptyPassword          = "EMPTY_PASSWORD"
	TextCodePasswordTooLong        = "PASSWORD_TOO_LONG"
	TextCodeValidation             = "VALIDATION_ERROR"
	TextCodeDuplicateField         = "DUPLICATE_FIELD"
	TextCodeResourceNotFound       = "NOT_FOUND"
	TextCodeForbidden              = "FORBIDDEN"
	TextCodeInternal               = "INTERNAL"
)

// ErrUserNotFound is returned by the directory when no record matches
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeUserNotFound)

// ErrInvalidCredentials is the generic login failure. It never says which
// part of the credential was wrong.
var ErrInvalidCredentials = goerrors.New("The provided credentials were invalid.", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidCreds)

// ErrAuthenticationRequired is returned by the require gate
var ErrAuthenticationRequired = goerrors.New("Authentication required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeAuthenticationRequired)

// ErrTokenExpired token past its expiration
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed token could not be decoded or its signature is wrong
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrNoEmptyString empty passwords are not hashed
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodeEmptyPassword)

// ErrPasswordTooLong bcrypt would truncate the password
var ErrPasswordTooLong = goerrors.New("password must be 72 bytes or less", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest).
	WithTextCode(TextCodePasswordTooLong)

// ErrResourceNotFound is the catch all for unknown routes
var ErrResourceNotFound = goerrors.New("The requested resource couldn't be found.", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound).
	WithTextCode(TextCodeResourceNotFound)

// UniqueViolationError is returned by the directory when a write collides
// with an existing email or username.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	if e.Field == "" {
		return "unique constraint violation"
	}
	return fmt.Sprintf("unique constraint violation on %s", e.Field)
}

func (e *UniqueViolationError) Unwrap() error {
	return e.Err
}

// DuplicateFieldError names the fields that already belong to another user.
type DuplicateFieldError struct {
	Fields []string
}

func newDuplicateFieldError(fields ...string) *DuplicateFieldError {
	seen := map[string]bool{}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	sort.Strings(out)
	return &DuplicateFieldError{Fields: out}
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("duplicate value for %s", strings.Join(e.Fields, ", "))
}

// Has reports whether field collided.
func (e *DuplicateFieldError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Messages returns one user facing message per field.
func (e *DuplicateFieldError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f] = fmt.Sprintf("User with that %s already exists", f)
	}
	return out
}

// RichError converts the error into the structured form rendered by the
// HTTP error handler.
func (e *DuplicateFieldError) RichError() *goerrors.Error {
	return goerrors.New("User already exists", goerrors.CategoryConflict).
		WithCode(goerrors.CodeConflict).
		WithTextCode(TextCodeDuplicateField).
		WithMetadata(map[string]any{
			"errors": e.Messages(),
		})
}
