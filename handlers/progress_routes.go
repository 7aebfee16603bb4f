package handlers

import (
	"mc-challenge-system/middleware"
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes wires the progress read paths, the system-only
// increment endpoint and the admin maintenance operations.
func SetupProgressRoutes(app *fiber.App, auth fiber.Handler, progressService *services.ProgressService) {
	group := app.Group("/api/progress")

	group.Get("/:id", func(c *fiber.Ctx) error {
		row, err := progressService.FindByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"progress": row})
	})

	// Called by the game-server plugin for direct task increments.
	group.Post("/increment", auth, middleware.RequireSystem(), func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"userId" validate:"required"`
			TaskID string `json:"taskId" validate:"required"`
			Amount int64  `json:"amount" validate:"omitempty,min=1"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		update, err := progressService.Increment(req.UserID, req.TaskID, req.Amount)
		if err != nil {
			return respondError(c, err)
		}
		challengeCompleted, err := progressService.CheckChallengeCompletion(req.UserID, update.Task.ChallengeID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"progress":           update.Progress,
			"taskCompleted":      update.TaskCompleted,
			"challengeCompleted": challengeCompleted,
		})
	})

	group.Put("/:id", auth, middleware.RequireAdminOrSystem(), func(c *fiber.Ctx) error {
		var req struct {
			Progress int64 `json:"progress" validate:"min=0"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		row, err := progressService.Update(c.Params("id"), req.Progress)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"progress": row})
	})

	group.Delete("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := progressService.Delete(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
