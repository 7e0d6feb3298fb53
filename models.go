package accounts

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	Email          string    `bun:"email,notnull,unique" json:"email"`
	Username       string    `bun:"username,notnull,unique" json:"username"`
	FirstName      string    `bun:"first_name,notnull" json:"firstName"`
	LastName       string    `bun:"last_name,notnull" json:"lastName"`
	HashedPassword string    `bun:"hashed_password,notnull" json:"-"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt      time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// SafeUser is the only user representation sent to clients
type SafeUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// Safe returns the client facing projection of the user. Fields are
// copied one by one so new columns stay private until listed here.
func (u *User) Safe() SafeUser {
	if u == nil {
		return SafeUser{}
	}
	return SafeUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Email:     u.Email,
	}
}

// NormalizeEmail is the canonical form used for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
