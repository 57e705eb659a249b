package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campaign-os/assistant/cache"
	"github.com/campaign-os/assistant/ui"
)

// AdminCaches shows hit/miss stats for every in-process cache.
func AdminCaches(c *fiber.Ctx) error {
	return render(c, ui.AdminPage(cache.AllStats()))
}

// Health is the unauthenticated liveness endpoint.
func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
