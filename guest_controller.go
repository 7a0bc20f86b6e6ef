package examauth

import (
	"github.com/gofiber/fiber/v2"
)

// GuestSessionsController creates throwaway guest accounts with a bounded
// lifetime and hands back a token scoped to that lifetime.
type GuestSessionsController struct {
	Logger Logger
	Guests *GuestService
	Tokens *TokenService
}

// NewGuestSessionsController builds the controller; Guests and Tokens are
// mandatory.
func NewGuestSessionsController(guests *GuestService, tokens *TokenService, logger Logger) *GuestSessionsController {
	if guests == nil {
		panic("Missing GuestService in guest sessions controller...")
	}
	if tokens == nil {
		panic("Missing TokenService in guest sessions controller...")
	}
	if logger == nil {
		logger = defLogger{}
	}

	return &GuestSessionsController{
		Logger: logger,
		Guests: guests,
		Tokens: tokens,
	}
}

// Create provisions a guest account and returns it with a token that expires
// together with the account.
func (g *GuestSessionsController) Create(c *fiber.Ctx) error {
	user, err := g.Guests.CreateGuest(c.Context())
	if err != nil {
		if IsCapacityError(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"status":  "error",
				"message": err.Error(),
			})
		}
		g.Logger.Error("create guest: %v", err)
		return err
	}

	token, err := g.Tokens.EncodeGuest(user, *user.GuestExpiresAt)
	if err != nil {
		return err
	}

	remaining, _ := g.Guests.RemainingSeconds(user)
	label, _ := g.Guests.RemainingTimeLabel(user)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"user": fiber.Map{
				"id":                user.ID,
				"is_guest":          true,
				"expires_at":        user.GuestExpiresAt,
				"remaining_seconds": remaining,
				"remaining_time":    label,
			},
			"token": token,
		},
		"message": "ゲストユーザーとしてログインしました",
	})
}
