package handlers

import (
	"errors"

	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SettingsHandler struct {
	Settings *services.SettingsService
}

func NewSettingsHandler(settings *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{Settings: settings}
}

type UpdateSettingsRequest struct {
	FeeAddress    string           `json:"feeAddress" validate:"required"`
	FeePercentage *decimal.Decimal `json:"feePercentage" validate:"required"`
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.Settings.GetActiveSettings(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	settings, err := h.Settings.UpdateSettings(c.UserContext(), req.FeeAddress, *req.FeePercentage, claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

func (h *SettingsHandler) GetHistory(c *fiber.Ctx) error {
	history, err := h.Settings.GetSettingsHistory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

// GetSystemSettings is the public projection the swap frontend reads its
// partner fee from. Zero values are served until settings exist.
func (h *SettingsHandler) GetSystemSettings(c *fiber.Ctx) error {
	settings, err := h.Settings.GetActiveSettings(c.UserContext())
	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(fiber.Map{"feeAddress": "", "feePercentage": decimal.Zero, "feeBps": 0})
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"feeAddress":    settings.FeeAddress,
		"feePercentage": settings.FeePercentage,
		"feeBps":        settings.BasisPoints(),
	})
}
