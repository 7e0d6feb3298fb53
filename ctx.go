package accounts

import (
	"context"
)

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext binds the sanitized user to the given context
func WithContext(ctx context.Context, user SafeUser) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userCtxKey, user)
}

// FromContext returns the user bound by the restore gate, if any.
func FromContext(ctx context.Context) (SafeUser, bool) {
	if ctx == nil {
		return SafeUser{}, false
	}
	user, ok := ctx.Value(userCtxKey).(SafeUser)
	return user, ok
}
