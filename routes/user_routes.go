package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(api fiber.Router, h *handlers.UserHandler) {
	user := api.Group("/user")
	user.Post("/connect-wallet", h.ConnectWallet)
	user.Get("/trader/:walletAddress", h.GetTrader)
}
