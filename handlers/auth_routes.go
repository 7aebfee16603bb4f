package handlers

import (
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes wires the account-link flow and password login. The
// link endpoints are unauthenticated: generate is called from the
// website before any session exists, complete is called by the plugin
// and authenticates through the single-use code itself.
func SetupAuthRoutes(app *fiber.App, authService *services.AuthService) {
	group := app.Group("/api/auth")

	group.Post("/link/generate", func(c *fiber.Ctx) error {
		code, expiresAt, err := authService.GenerateLinkCode(c.Context())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"code":        code,
			"expires_at":  expiresAt,
			"instruction": "Type /link " + code + " in game to link your account",
		})
	})

	group.Post("/link/complete", func(c *fiber.Ctx) error {
		var req struct {
			Code          string `json:"code" validate:"required,len=6"`
			MinecraftUUID string `json:"uuid_mc" validate:"required"`
			Username      string `json:"username" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		user, token, err := authService.CompleteLink(c.Context(), req.Code, req.MinecraftUUID, req.Username)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "account linked",
			"token":   token,
			"user":    user,
		})
	})

	group.Get("/link/verify/:code", func(c *fiber.Ctx) error {
		expiresAt, err := authService.VerifyLinkCode(c.Context(), c.Params("code"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"valid": true, "expires_at": expiresAt})
	})

	group.Post("/login", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		user, token, err := authService.Login(req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"token": token, "user": user})
	})
}
