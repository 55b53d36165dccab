package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(server *fiber.App, handler *Handler) {
	server.Get("/healthz", handler.Health)

	api := server.Group("/api", handler.SecretRequired)

	habits := api.Group("/habits")
	habits.Get("", handler.ListHabits)
	habits.Get("/:id/streak", handler.GetStreak)
	habits.Get("/:id/stats", handler.GetStats)
	habits.Put("/:id/records/:date", handler.PutRecord)
	habits.Delete("/:id/records/:date", handler.DeleteRecord)
	habits.Put("/:id/reminder", handler.PutReminder)
	habits.Delete("/:id/reminder", handler.DeleteReminder)

	reminders := api.Group("/reminders")
	reminders.Post("/enable-all", handler.EnableAll)
	reminders.Post("/disable-all", handler.DisableAll)

	permission := api.Group("/permission")
	permission.Get("", handler.GetPermission)
	permission.Post("/invalidate", handler.InvalidatePermission)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
