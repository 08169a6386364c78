package handlers

import (
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Identities *services.IdentityService
}

func NewUserHandler(identities *services.IdentityService) *UserHandler {
	return &UserHandler{Identities: identities}
}

func (h *UserHandler) ConnectWallet(c *fiber.Ctx) error {
	var req WalletRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	user, created, err := h.Identities.ConnectWallet(c.UserContext(), req.WalletAddress)
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"user": user, "created": created})
}

func (h *UserHandler) GetTrader(c *fiber.Ctx) error {
	profile, err := h.Identities.GetTrader(c.UserContext(), c.Params("walletAddress"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
