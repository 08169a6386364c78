package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/gofiber/fiber/v2"
)

func ReferralRoutes(api fiber.Router, h *handlers.ReferralHandler, jwtSecret []byte) {
	referral := api.Group("/referral")
	referral.Post("/code/wallet", h.GenerateCodeForWallet)
	referral.Get("/validate/:code", h.ValidateCode)
	referral.Post("/register", h.Register)
	referral.Get("/wallet/:walletAddress", h.ForWallet)

	protected := middleware.Protected(jwtSecret)
	referral.Post("/code", protected, h.GenerateCode)
	referral.Get("/mine", protected, h.Mine)
}
