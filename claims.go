package accounts

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the payload carried by a session token. Only the
// registered claims are used: sub holds the user id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// SubjectID parses the subject claim into a user id
func (c *SessionClaims) SubjectID() (int64, error) {
	return strconv.ParseInt(c.RegisteredClaims.Subject, 10, 64)
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Issued returns the issue time
func (c *SessionClaims) Issued() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
