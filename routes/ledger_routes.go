package routes

import (
	"github.com/TimmyIsANerd/chamswap/websocket"
	"github.com/gofiber/fiber/v2"
)

func LedgerRoutes(api fiber.Router, ledger fiber.Handler) {
	api.Use("/ws", websocket.UpgradeRequired)
	api.Get("/ws/ledger", ledger)
}
