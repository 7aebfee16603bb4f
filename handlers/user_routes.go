package handlers

import (
	"mc-challenge-system/middleware"
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, auth fiber.Handler, userService *services.UserService, challengeService *services.ChallengeService, progressService *services.ProgressService) {
	group := app.Group("/api/users")

	group.Get("/", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		users, err := userService.FindAll()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"users": users})
	})

	group.Get("/me", auth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": middleware.CurrentUser(c)})
	})

	group.Get("/me/challenges", auth, func(c *fiber.Ctx) error {
		memberships, err := challengeService.FindForUser(middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenges": memberships})
	})

	group.Get("/me/challenges/stats", auth, func(c *fiber.Ctx) error {
		stats, err := challengeService.UserStats(middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"stats": stats})
	})

	group.Get("/uuid/:uuid", auth, middleware.RequireAdminOrSystem(), func(c *fiber.Ctx) error {
		user, err := userService.FindByMinecraftUUID(c.Params("uuid"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"user": user})
	})

	group.Get("/:id", auth, middleware.RequireAdminOrSystem(), func(c *fiber.Ctx) error {
		user, err := userService.FindByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"user": user})
	})

	group.Put("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var req struct {
			Username *string `json:"username"`
			Email    *string `json:"email" validate:"omitempty,email"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		user, err := userService.Update(c.Params("id"), req.Username, req.Email)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"user": user})
	})

	group.Delete("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := userService.Delete(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	group.Get("/:id/progress", auth, middleware.RequireAdminOrSystem(), func(c *fiber.Ctx) error {
		rows, err := progressService.FindAllByUser(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"progress": rows})
	})

	group.Get("/:id/challenges/:challengeId/progress", auth, middleware.RequireAdminOrSystem(), func(c *fiber.Ctx) error {
		rows, err := progressService.FindByUserAndChallenge(c.Params("id"), c.Params("challengeId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"progress": rows})
	})

	group.Delete("/:id/challenges/:challengeId/progress", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		reset, err := progressService.ResetByUserAndChallenge(c.Params("id"), c.Params("challengeId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"reset": reset})
	})
}
