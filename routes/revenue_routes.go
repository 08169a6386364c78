package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/gofiber/fiber/v2"
)

func RevenueRoutes(api fiber.Router, h *handlers.RevenueHandler, jwtSecret []byte) {
	revenue := api.Group("/revenue")
	revenue.Post("/transaction", h.RecordTransaction)

	protected := middleware.Protected(jwtSecret)
	revenue.Get("/wallet/:walletAddress", protected, h.GetWalletTransactions)

	admin := middleware.RolesRequired(models.RoleAdmin, models.RoleSuperAdmin)
	revenue.Get("/stats", protected, admin, h.GetRevenueStats)
	revenue.Get("/top-traders", protected, admin, h.GetTopTraders)
	revenue.Get("/report", protected, admin, h.GenerateReport)
}
