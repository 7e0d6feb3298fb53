package accounts

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts/middleware/jwtware"
)

// UserFinder resolves the subject of a verified token.
type UserFinder interface {
	FindUser(ctx context.Context, id int64) (*User, error)
}

// SessionManager owns the session cookie and the two identity gates.
type SessionManager struct {
	cfg        Config
	tokens     TokenCodec
	users      UserFinder
	extractors []jwtware.JWTExtractor
	Logger     Logger
}

// NewSessionManager returns a SessionManager that reads tokens from the
// configured lookup, cookie first by default.
func NewSessionManager(cfg Config, tokens TokenCodec, users UserFinder) *SessionManager {
	return &SessionManager{
		cfg:        cfg,
		tokens:     tokens,
		users:      users,
		extractors: jwtware.GetExtractors(cfg.GetTokenLookup(), cfg.GetAuthScheme()),
		Logger:     defLogger{},
	}
}

func (m *SessionManager) WithLogger(logger Logger) *SessionManager {
	m.Logger = normalizeLogger(logger)
	return m
}

// RestoreUser binds the token's user to the request context. It never
// rejects a request for a bad token: invalid tokens and tokens for
// missing users clear the cookie and continue anonymously.
func (m *SessionManager) RestoreUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := jwtware.ExtractRawToken(c, m.extractors)
		if err != nil {
			return c.Next()
		}

		id, ok := m.tokens.Verify(raw)
		if !ok {
			m.Logger.Debug("discarding invalid session token", "path", c.Path())
			m.clearStaleCookie(c)
			return c.Next()
		}

		user, err := m.users.FindUser(c.UserContext(), id)
		if err != nil {
			if isUserNotFound(err) {
				m.Logger.Debug("session user no longer exists", "user_id", id)
				m.clearStaleCookie(c)
				return c.Next()
			}
			return err
		}

		c.SetUserContext(WithContext(c.UserContext(), user.Safe()))
		return c.Next()
	}
}

// RequireAuth rejects requests that RestoreUser left anonymous.
func (m *SessionManager) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := FromContext(c.UserContext()); !ok {
			return ErrAuthenticationRequired
		}
		return c.Next()
	}
}

// CurrentUser returns the user bound by RestoreUser
func (m *SessionManager) CurrentUser(c *fiber.Ctx) (SafeUser, bool) {
	return FromContext(c.UserContext())
}

// SetTokenCookie issues a token for user and stores it in the session
// cookie. The cookie lives exactly as long as the token.
func (m *SessionManager) SetTokenCookie(c *fiber.Ctx, user *User) error {
	token, expiresAt, err := m.tokens.Issue(user.ID)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     m.cfg.GetTokenCookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(m.tokens.TTL() / time.Second),
		HTTPOnly: true,
		Secure:   m.cfg.IsProduction(),
		SameSite: m.sameSite(),
	})

	return nil
}

// ClearTokenCookie expires the session cookie
func (m *SessionManager) ClearTokenCookie(c *fiber.Ctx) {
	m.cookieDel(c, m.cfg.GetTokenCookieName(), true)
}

// ClearCSRFCookie expires the anti forgery cookie. It keeps the attributes
// it was set with, scripts must be able to read it.
func (m *SessionManager) ClearCSRFCookie(c *fiber.Ctx) {
	m.cookieDel(c, CSRFCookieName, false)
}

func (m *SessionManager) clearStaleCookie(c *fiber.Ctx) {
	if c.Cookies(m.cfg.GetTokenCookieName()) == "" {
		return
	}
	m.ClearTokenCookie(c)
}

func (m *SessionManager) cookieDel(c *fiber.Ctx, name string, httpOnly bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: httpOnly,
		Secure:   m.cfg.IsProduction(),
		SameSite: m.sameSite(),
	})
}

func (m *SessionManager) sameSite() string {
	if m.cfg.IsProduction() {
		return fiber.CookieSameSiteLaxMode
	}
	return fiber.CookieSameSiteDisabled
}
