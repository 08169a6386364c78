package routes

import (
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/gofiber/fiber/v2"
)

// Handlers bundles everything the API routes dispatch to.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Settings *handlers.SettingsHandler
	Revenue  *handlers.RevenueHandler
	Referral *handlers.ReferralHandler
	User     *handlers.UserHandler
	Ledger   fiber.Handler
}

func Setup(app *fiber.App, h Handlers, jwtSecret []byte) {
	api := app.Group("/api/v1")

	AuthRoutes(api, h.Auth, jwtSecret)
	SettingsRoutes(api, h.Settings, jwtSecret)
	RevenueRoutes(api, h.Revenue, jwtSecret)
	ReferralRoutes(api, h.Referral, jwtSecret)
	UserRoutes(api, h.User)
	if h.Ledger != nil {
		LedgerRoutes(api, h.Ledger)
	}
}
