package accounts

import (
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt reads in full. Longer
// inputs would be silently truncated.
const MaxPasswordBytes = 72

// Hasher is the bcrypt backed PasswordHasher.
type Hasher struct {
	cost int
}

var _ PasswordHasher = (*Hasher)(nil)

// NewHasher returns a Hasher using cost. Values outside bcrypt's accepted
// range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the work factor used for new digests.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash returns a salted digest for password. The salt is embedded in the
// digest so hashing the same password twice yields different values.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. The comparison is
// constant time and malformed digests simply return false. Passwords over
// MaxPasswordBytes never match since no digest can represent them.
func (h *Hasher) Verify(password, digest string) bool {
	if digest == "" || len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
