package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// DevelopmentSigningKey is only accepted outside production
const DevelopmentSigningKey = "accounts-development-signing-key"

const (
	defaultTokenCookie = "token"
	defaultAuthScheme  = "Bearer"
)

// BaseConfig is the environment backed Config implementation
type BaseConfig struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"8000"`
	DBDialect       string        `env:"DB_DIALECT" envDefault:"sqlite"`
	DatabaseURL     string        `env:"DATABASE_URL" envDefault:"file:accounts.db?cache=shared"`
	SigningKey      string        `env:"JWT_SECRET" envDefault:"accounts-development-signing-key"`
	TokenExpiration time.Duration `env:"JWT_EXPIRES_IN" envDefault:"1h"`
	Issuer          string        `env:"JWT_ISSUER"`
	BcryptCost      int           `env:"BCRYPT_COST" envDefault:"10"`
	TokenCookie     string        `env:"TOKEN_COOKIE" envDefault:"token"`
	TokenLookup     string        `env:"TOKEN_LOOKUP"`
	AuthScheme      string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	CSRFEnabled     bool          `env:"CSRF_ENABLED" envDefault:"true"`
}

var _ Config = (*BaseConfig)(nil)

// LoadConfig parses the configuration from the environment and validates it
func LoadConfig() (*BaseConfig, error) {
	cfg := &BaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that can't be fixed with a default
func (c *BaseConfig) Validate() error {
	problems := map[string]any{}

	if strings.TrimSpace(c.SigningKey) == "" {
		problems["JWT_SECRET"] = "signing key is required"
	} else if c.IsProduction() && c.SigningKey == DevelopmentSigningKey {
		problems["JWT_SECRET"] = "development signing key can't be used in production"
	}

	if c.TokenExpiration <= 0 {
		problems["JWT_EXPIRES_IN"] = "token expiration must be positive"
	}

	switch c.DBDialect {
	case DialectSQLite, DialectPostgres:
	default:
		problems["DB_DIALECT"] = fmt.Sprintf("unsupported dialect %q", c.DBDialect)
	}

	if !readsCookie(c.GetTokenLookup(), c.GetTokenCookieName()) {
		problems["TOKEN_LOOKUP"] = fmt.Sprintf("token lookup must read the %q cookie", c.GetTokenCookieName())
	}

	if len(problems) == 0 {
		return nil
	}

	return goerrors.New("invalid configuration", goerrors.CategoryBadInput).
		WithTextCode(TextCodeValidation).
		WithMetadata(problems)
}

func (c *BaseConfig) GetEnvironment() string {
	if c.Environment == "" {
		return EnvDevelopment
	}
	return c.Environment
}

func (c *BaseConfig) IsProduction() bool {
	return c.GetEnvironment() == EnvProduction
}

func (c *BaseConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *BaseConfig) GetTokenExpiration() time.Duration {
	if c.TokenExpiration <= 0 {
		return DefaultTokenExpiration
	}
	return c.TokenExpiration
}

func (c *BaseConfig) GetIssuer() string {
	return c.Issuer
}

func (c *BaseConfig) GetTokenCookieName() string {
	if c.TokenCookie == "" {
		return defaultTokenCookie
	}
	return c.TokenCookie
}

// GetTokenLookup defaults to the token cookie followed by the
// Authorization header.
func (c *BaseConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "cookie:" + c.GetTokenCookieName() + ",header:Authorization"
	}
	return c.TokenLookup
}

func (c *BaseConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return defaultAuthScheme
	}
	return c.AuthScheme
}

func (c *BaseConfig) GetBcryptCost() int {
	return c.BcryptCost
}

func (c *BaseConfig) GetCSRFEnabled() bool {
	return c.CSRFEnabled
}

// Addr is the listen address for the HTTP server
func (c *BaseConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// readsCookie reports whether lookup has a cookie source named name. The
// session cookie is always written, a lookup that skips it would never
// restore a browser session.
func readsCookie(lookup, name string) bool {
	for _, source := range strings.Split(lookup, ",") {
		parts := strings.SplitN(strings.TrimSpace(source), ":", 2)
		if len(parts) == 2 && parts[0] == "cookie" && strings.TrimSpace(parts[1]) == name {
			return true
		}
	}
	return false
}
