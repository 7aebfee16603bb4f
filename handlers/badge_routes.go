package handlers

import (
	"fmt"
	"path/filepath"

	"mc-challenge-system/middleware"
	"mc-challenge-system/services"
	"mc-challenge-system/utils"

	"github.com/google/uuid"
	"github.com/gofiber/fiber/v2"
)

// SetupBadgeRoutes wires the badge catalog, icon upload and the
// award/revoke surface.
func SetupBadgeRoutes(app *fiber.App, auth fiber.Handler, badgeService *services.BadgeService) {
	group := app.Group("/api/badges")

	group.Get("/", func(c *fiber.Ctx) error {
		badges, err := badgeService.FindAll()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badges": badges})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		badge, err := badgeService.FindByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badge": badge})
	})

	group.Post("/", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var req struct {
			Name        string           `json:"name" validate:"required,min=2,max=64"`
			Description string           `json:"description"`
			Criteria    map[string]int64 `json:"criteria"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		badge, err := badgeService.Create(req.Name, req.Description, req.Criteria)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"badge": badge})
	})

	group.Put("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var req struct {
			Name        *string          `json:"name"`
			Description *string          `json:"description"`
			Criteria    map[string]int64 `json:"criteria"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		badge, err := badgeService.Update(c.Params("id"), req.Name, req.Description, req.Criteria)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badge": badge})
	})

	group.Post("/:id/icon", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return badRequest(c, err)
		}
		key := fmt.Sprintf("badges/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadFile(fileHeader, key)
		if err != nil {
			return respondError(c, err)
		}
		badge, err := badgeService.SetIconURL(c.Params("id"), url)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badge": badge})
	})

	group.Delete("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := badgeService.Delete(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "badge deleted"})
	})

	// Award/revoke live under /api/users for symmetry with the badge
	// list of a player.

	app.Get("/api/users/:userId/badges", func(c *fiber.Ctx) error {
		badges, err := badgeService.FindForUser(c.Params("userId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"badges": badges})
	})

	app.Post("/api/users/:userId/badges/:badgeId", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		userBadge, awarded, err := badgeService.Award(c.Params("userId"), c.Params("badgeId"))
		if err != nil {
			return respondError(c, err)
		}
		status := fiber.StatusOK
		if awarded {
			status = fiber.StatusCreated
		}
		return c.Status(status).JSON(fiber.Map{"badge": userBadge})
	})

	app.Delete("/api/users/:userId/badges/:badgeId", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := badgeService.Revoke(c.Params("userId"), c.Params("badgeId")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
