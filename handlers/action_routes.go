package handlers

import (
	"mc-challenge-system/middleware"
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupActionRoutes wires the action catalog CRUD and the event endpoint
// the plugin reports raw in-game actions to.
func SetupActionRoutes(app *fiber.App, auth fiber.Handler, actionService *services.ActionService) {
	group := app.Group("/api/actions")

	group.Get("/", func(c *fiber.Ctx) error {
		actions, err := actionService.FindAll()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"actions": actions})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		action, err := actionService.FindByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"action": action})
	})

	group.Post("/", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.ActionInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(in); err != nil {
			return badRequest(c, err)
		}
		action, err := actionService.Create(in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"action": action})
	})

	group.Put("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.ActionInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(in); err != nil {
			return badRequest(c, err)
		}
		action, err := actionService.Update(c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"action": action})
	})

	group.Delete("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := actionService.Delete(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "action deleted"})
	})

	// The plugin reports "player did X, N times, with these parameters".
	// The response carries one outcome per matching task so the plugin
	// can show in-game feedback.
	group.Post("/event", auth, middleware.RequireSystem(), func(c *fiber.Ctx) error {
		var req struct {
			UserID     string         `json:"userId" validate:"required"`
			ActionName string         `json:"actionName" validate:"required"`
			Quantity   int64          `json:"quantity" validate:"omitempty,min=1"`
			Parameters map[string]any `json:"parameters"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, err)
		}
		outcomes, err := actionService.ProcessEvent(req.UserID, req.ActionName, req.Quantity, req.Parameters)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"outcomes": outcomes})
	})
}
