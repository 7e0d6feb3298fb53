package accounts

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultTokenExpiration is used when no TTL is configured
const DefaultTokenExpiration = time.Hour

// TokenConfig is the immutable configuration of a TokenService
type TokenConfig struct {
	SigningKey []byte
	TTL        time.Duration
	Issuer     string
	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// TokenConfigFromConfig builds a TokenConfig out of the accounts Config
func TokenConfigFromConfig(cfg Config) TokenConfig {
	return TokenConfig{
		SigningKey: []byte(cfg.GetSigningKey()),
		TTL:        cfg.GetTokenExpiration(),
		Issuer:     cfg.GetIssuer(),
	}
}

// TokenService signs and verifies HS256 session tokens
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	now        func() time.Time
	logger     Logger
	parser     *jwt.Parser
}

var _ TokenCodec = (*TokenService)(nil)

// NewTokenService creates a new TokenService instance
func NewTokenService(cfg TokenConfig, logger Logger) (*TokenService, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, goerrors.New("token signing key is required", goerrors.CategoryBadInput)
	}

	if cfg.TTL < 0 {
		return nil, goerrors.New("token TTL must be non-negative", goerrors.CategoryBadInput)
	}

	if cfg.TTL == 0 {
		cfg.TTL = DefaultTokenExpiration
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cfg.Now),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return &TokenService{
		signingKey: key,
		ttl:        cfg.TTL,
		issuer:     cfg.Issuer,
		now:        cfg.Now,
		logger:     normalizeLogger(logger),
		parser:     jwt.NewParser(opts...),
	}, nil
}

// TTL returns the token lifetime
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue creates a token for subjectID that expires after the configured TTL
func (ts *TokenService) Issue(subjectID int64) (string, time.Time, error) {
	now := ts.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign session token")
	}

	return signed, claims.Expires(), nil
}

// Verify returns the subject of a valid token. Any failure, be it a
// decoding error, a bad signature or an expired token, yields false.
func (ts *TokenService) Verify(token string) (int64, bool) {
	claims, err := ts.Validate(token)
	if err != nil {
		return 0, false
	}

	id, err := claims.SubjectID()
	if err != nil {
		ts.logger.Debug("token subject is not a user id", "error", err)
		return 0, false
	}

	return id, true
}

// Validate parses and validates a token string, returning its claims
func (ts *TokenService) Validate(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMalformed
	}

	token, err := ts.parser.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		if goerrors.Is(err, jwt.ErrTokenExpired) {
			ts.logger.Debug("session token expired")
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("session token rejected", "error", err)
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
