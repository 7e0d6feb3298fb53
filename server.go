package accounts

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	CSRFCookieName = "XSRF-TOKEN"
	CSRFHeaderName = "XSRF-Token"
	csrfContextKey = "csrf"
)

// ServerOptions tweaks the HTTP server
type ServerOptions struct {
	// DisableRequestLog turns off the per request access log.
	DisableRequestLog bool
}

// NewHTTPServer builds the fiber app with the transport middleware stack
// and the account routes.
func NewHTTPServer(cfg Config, controller *Controller, logger Logger, opts ...ServerOptions) *fiber.App {
	var opt ServerOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	app := fiber.New(fiber.Config{
		AppName:               "accounts",
		ErrorHandler:          NewErrorHandler(cfg, logger),
		DisableStartupMessage: true,
	})

	if !opt.DisableRequestLog {
		app.Use(fiberlogger.New())
	}

	app.Use(fiberrecover.New())

	if !cfg.IsProduction() {
		app.Use(cors.New())
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	if cfg.GetCSRFEnabled() {
		sameSite := fiber.CookieSameSiteDisabled
		if cfg.IsProduction() {
			sameSite = fiber.CookieSameSiteLaxMode
		}
		app.Use(csrf.New(csrf.Config{
			KeyLookup:      "header:" + CSRFHeaderName,
			CookieName:     CSRFCookieName,
			CookiePath:     "/",
			CookieSecure:   cfg.IsProduction(),
			CookieHTTPOnly: false,
			CookieSameSite: sameSite,
			Expiration:     time.Hour,
			ContextKey:     csrfContextKey,
		}))
	}

	controller.RegisterRoutes(app)

	app.Use(func(c *fiber.Ctx) error {
		return ErrResourceNotFound
	})

	return app
}
