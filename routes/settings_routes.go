package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/gofiber/fiber/v2"
)

func SettingsRoutes(api fiber.Router, h *handlers.SettingsHandler, jwtSecret []byte) {
	api.Get("/system/settings", h.GetSystemSettings)

	settings := api.Group("/settings", middleware.Protected(jwtSecret))
	settings.Get("", h.GetSettings)

	admin := middleware.RolesRequired(models.RoleAdmin, models.RoleSuperAdmin)
	settings.Post("", admin, h.UpdateSettings)
	settings.Get("/history", admin, h.GetHistory)
}
