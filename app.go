package examauth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/examhub/go-examauth/middleware/csrf"
	"github.com/examhub/go-examauth/middleware/ratelimit"
)

// Dependencies carries the wired services the HTTP layer is built from.
type Dependencies struct {
	Config Config
	Logger Logger
	Repo   Users
	Tokens *TokenService
	Guests *GuestService
	Store  ratelimit.Store
}

// BuildApp assembles the full request pipeline: throttling, then the CSRF
// guard, then the route table with bearer authentication attached per route.
func BuildApp(deps Dependencies) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = defLogger{}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(deps.Logger),
	})

	app.Use(ratelimit.New(ratelimit.Config{
		Enabled: deps.Config.RateLimitEnabled,
		Rules:   ThrottleRules(deps.Config, deps.Tokens),
		Store:   deps.Store,
		OnLimit: func(c *fiber.Ctx, rule ratelimit.Rule, key string) {
			deps.Logger.Warn("throttled %s %s rule=%s key=%s", c.Method(), c.Path(), rule.Name, key)
		},
	}))

	app.Use(csrf.New(csrf.Config{
		SecureCookie: deps.Config.Production(),
		LogoutPath:   "/auth/logout",
		ExemptPaths: []string{
			"/auth/login",
			"/auth/register",
			"/guest_sessions",
		},
	}))

	RegisterRoutes(app, deps)

	return app
}

// RegisterRoutes mounts the authentication and guest-session routes on the
// given router.
func RegisterRoutes(router fiber.Router, deps Dependencies) {
	auth := NewAuthController(
		WithRepo(deps.Repo),
		WithTokens(deps.Tokens),
		WithLogger(deps.Logger),
	)
	guests := NewGuestSessionsController(deps.Guests, deps.Tokens, deps.Logger)

	authenticate := Authenticate(deps.Tokens, deps.Repo, deps.Logger)

	router.Post("/auth/register", auth.Register)
	router.Post("/auth/login", auth.Login)
	router.Post("/auth/logout", authenticate, auth.Logout)
	router.Get("/auth/logout", authenticate, auth.Logout)
	router.Get("/auth/me", authenticate, RequireUser(), auth.Me)
	router.Delete("/auth/me", authenticate, RequireUser(), auth.DeleteMe)
	router.Get("/auth/verify", authenticate, auth.Verify)
	router.Post("/auth/verify", authenticate, auth.Verify)

	router.Post("/guest_sessions", guests.Create)
}

// ErrorHandler maps domain errors to their HTTP shape: authorization failures
// to 403, capacity exhaustion to 422, fiber errors pass through, anything else
// is a logged 500.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var perm *PermissionError
		if errors.As(err, &perm) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         "insufficient_permissions",
				"message":       perm.Message(),
				"code":          "AUTH_403",
				"required_role": perm.RequiredRole,
			})
		}

		if IsCapacityError(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error": fe.Message,
			})
		}

		logger.Error("unhandled error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
		})
	}
}
