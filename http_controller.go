package accounts

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Accounts is the identity service surface used by the HTTP controller
type Accounts interface {
	Signup(ctx context.Context, input SignupInput) (*User, error)
	Login(ctx context.Context, credential, password string) (*User, error)
	Logout(ctx context.Context, userID int64)
	UpdateProfile(ctx context.Context, userID int64, changes ProfileChanges) (*User, error)
	DeleteAccount(ctx context.Context, userID int64) error
}

// Controller exposes the session and user routes
type Controller struct {
	accounts Accounts
	sessions *SessionManager
	Logger   Logger
}

// NewController returns a new Controller
func NewController(accounts Accounts, sessions *SessionManager) *Controller {
	return &Controller{
		accounts: accounts,
		sessions: sessions,
		Logger:   defLogger{},
	}
}

func (a *Controller) WithLogger(logger Logger) *Controller {
	a.Logger = normalizeLogger(logger)
	return a
}

// RegisterRoutes mounts the API on r
func (a *Controller) RegisterRoutes(r fiber.Router) {
	restore := a.sessions.RestoreUser()
	require := a.sessions.RequireAuth()

	r.Get("/", a.Health)

	api := r.Group("/api")
	api.Get("/csrf/restore", a.CSRFRestore)

	session := api.Group("/session")
	session.Get("/", restore, a.SessionGet)
	session.Post("/", restore, a.LoginPost)
	session.Delete("/", restore, a.LogoutDelete)

	users := api.Group("/users")
	users.Post("/signup", restore, a.SignupPost)
	users.Get("/profile", restore, require, a.ProfileGet)
	users.Put("/profile", restore, require, a.ProfilePut)
	users.Delete("/profile", restore, require, a.ProfileDelete)
}

func (a *Controller) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// CSRFRestore hands the anti forgery token to clients that can't read
// the XSRF cookie.
func (a *Controller) CSRFRestore(c *fiber.Ctx) error {
	token, _ := c.Locals(csrfContextKey).(string)
	return c.JSON(fiber.Map{CSRFHeaderName: token})
}

func (a *Controller) SessionGet(c *fiber.Ctx) error {
	user, ok := a.sessions.CurrentUser(c)
	if !ok {
		return c.JSON(fiber.Map{"user": nil})
	}
	return c.JSON(fiber.Map{"user": user})
}

func (a *Controller) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)
	if err := c.BodyParser(payload); err != nil {
		return ValidationError(err)
	}

	if err := payload.Validate(); err != nil {
		return ValidationError(err)
	}

	user, err := a.accounts.Login(c.UserContext(), payload.Credential, payload.Password)
	if err != nil {
		return err
	}

	if user == nil {
		return ErrInvalidCredentials
	}

	if err := a.sessions.SetTokenCookie(c, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": user.Safe()})
}

func (a *Controller) LogoutDelete(c *fiber.Ctx) error {
	if user, ok := a.sessions.CurrentUser(c); ok {
		a.accounts.Logout(c.UserContext(), user.ID)
	}

	a.sessions.ClearTokenCookie(c)
	a.sessions.ClearCSRFCookie(c)

	return c.JSON(fiber.Map{"message": "success"})
}

func (a *Controller) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupPayload)
	if err := c.BodyParser(payload); err != nil {
		return ValidationError(err)
	}

	if err := payload.Validate(); err != nil {
		return ValidationError(err)
	}

	user, err := a.accounts.Signup(c.UserContext(), payload.Input())
	if err != nil {
		return err
	}

	a.Logger.Info("user signed up", "user_id", user.ID)

	if err := a.sessions.SetTokenCookie(c, user); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": user.Safe()})
}

func (a *Controller) ProfileGet(c *fiber.Ctx) error {
	user, _ := a.sessions.CurrentUser(c)
	return c.JSON(fiber.Map{"user": user})
}

func (a *Controller) ProfilePut(c *fiber.Ctx) error {
	current, _ := a.sessions.CurrentUser(c)

	payload := new(ProfilePayload)
	if err := c.BodyParser(payload); err != nil {
		return ValidationError(err)
	}

	if err := payload.Validate(); err != nil {
		return ValidationError(err)
	}

	user, err := a.accounts.UpdateProfile(c.UserContext(), current.ID, payload.Changes())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"user": user.Safe()})
}

func (a *Controller) ProfileDelete(c *fiber.Ctx) error {
	current, _ := a.sessions.CurrentUser(c)

	if err := a.accounts.DeleteAccount(c.UserContext(), current.ID); err != nil {
		return err
	}

	a.sessions.ClearTokenCookie(c)

	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
