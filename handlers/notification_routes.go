package handlers

import (
	"mc-challenge-system/middleware"
	"mc-challenge-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupNotificationRoutes wires the per-player notification inbox. All
// routes act on the authenticated account's own notifications.
func SetupNotificationRoutes(app *fiber.App, auth fiber.Handler, notificationService *services.NotificationService) {
	group := app.Group("/api/notifications", auth)

	group.Get("/", func(c *fiber.Ctx) error {
		includeRead := c.QueryBool("all", false)
		notifications, err := notificationService.ListForUser(middleware.CurrentUser(c).ID, includeRead)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"notifications": notifications})
	})

	group.Get("/unread/count", func(c *fiber.Ctx) error {
		count, err := notificationService.CountUnread(middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"unread": count})
	})

	group.Patch("/read-all", func(c *fiber.Ctx) error {
		n, err := notificationService.MarkAllRead(middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"marked": n})
	})

	group.Patch("/:id/read", func(c *fiber.Ctx) error {
		notification, err := notificationService.MarkRead(c.Params("id"), middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"notification": notification})
	})

	group.Delete("/read", func(c *fiber.Ctx) error {
		n, err := notificationService.DeleteRead(middleware.CurrentUser(c).ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"deleted": n})
	})

	group.Delete("/:id", func(c *fiber.Ctx) error {
		if err := notificationService.Delete(c.Params("id"), middleware.CurrentUser(c).ID); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
