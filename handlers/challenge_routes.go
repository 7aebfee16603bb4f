package handlers

import (
	"mc-challenge-system/middleware"
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupChallengeRoutes wires the challenge catalog, membership
// (join/leave) and the nested task CRUD.
func SetupChallengeRoutes(app *fiber.App, auth fiber.Handler,
	challengeService *services.ChallengeService,
	taskService *services.TaskService,
	progressService *services.ProgressService,
) {
	group := app.Group("/api/challenges")

	group.Get("/", func(c *fiber.Ctx) error {
		challenges, err := challengeService.FindAll()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenges": challenges})
	})

	group.Get("/active", func(c *fiber.Ctx) error {
		challenges, err := challengeService.FindActive()
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenges": challenges})
	})

	group.Get("/with-tasks", func(c *fiber.Ctx) error {
		challenges, err := challengeService.FindAllWithTasks(c.Query("type"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenges": challenges})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		challenge, err := challengeService.FindByID(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenge": challenge})
	})

	group.Post("/", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.ChallengeInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(in); err != nil {
			return badRequest(c, err)
		}
		challenge, err := challengeService.Create(middleware.CurrentUser(c).ID, in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"challenge": challenge})
	})

	group.Put("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.ChallengeInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(in); err != nil {
			return badRequest(c, err)
		}
		challenge, err := challengeService.Update(c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"challenge": challenge})
	})

	group.Delete("/:id", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := challengeService.Delete(c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "challenge deleted"})
	})

	group.Post("/:id/join", auth, func(c *fiber.Ctx) error {
		membership, err := challengeService.Join(middleware.CurrentUser(c).ID, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "challenge joined", "joinedChallenge": membership})
	})

	group.Post("/:id/leave", auth, func(c *fiber.Ctx) error {
		if err := challengeService.Leave(middleware.CurrentUser(c).ID, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "challenge left"})
	})

	group.Get("/:id/stats", func(c *fiber.Ctx) error {
		stats, err := challengeService.Stats(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"stats": stats})
	})

	group.Get("/:id/progress", func(c *fiber.Ctx) error {
		rows, err := progressService.FindAllByChallenge(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"progress": rows})
	})

	// Nested task CRUD.

	group.Get("/:id/tasks", func(c *fiber.Ctx) error {
		tasks, err := taskService.FindAllByChallenge(c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tasks": tasks})
	})

	group.Get("/:id/tasks/:taskId", func(c *fiber.Ctx) error {
		task, err := taskService.FindByID(c.Params("id"), c.Params("taskId"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"task": task})
	})

	group.Post("/:id/tasks", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.TaskInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		if err := validate.Struct(in); err != nil {
			return badRequest(c, err)
		}
		task, err := taskService.Create(c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
	})

	group.Put("/:id/tasks/:taskId", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		var in services.TaskInput
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, err)
		}
		task, err := taskService.Update(c.Params("id"), c.Params("taskId"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"task": task})
	})

	group.Delete("/:id/tasks/:taskId", auth, middleware.RequireAdmin(), func(c *fiber.Ctx) error {
		if err := taskService.Delete(c.Params("id"), c.Params("taskId")); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"message": "task deleted"})
	})
}
