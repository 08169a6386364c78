package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router, h *handlers.AuthHandler, jwtSecret []byte) {
	auth := api.Group("/auth")
	auth.Post("/login", h.Login)
	auth.Post("/set-password", h.SetPassword)

	protected := middleware.Protected(jwtSecret)
	auth.Get("/me", protected, h.Me)
	auth.Get("/users", protected, middleware.RolesRequired(models.RoleAdmin, models.RoleSuperAdmin), h.ListUsers)

	superAdmin := middleware.RolesRequired(models.RoleSuperAdmin)
	auth.Post("/admin", protected, superAdmin, h.CreateAdmin)
	auth.Delete("/admin/:adminId", protected, superAdmin, h.RemoveAdmin)
}
