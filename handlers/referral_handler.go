package handlers

import (
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
)

type ReferralHandler struct {
	Referrals *services.ReferralService
}

func NewReferralHandler(referrals *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{Referrals: referrals}
}

type WalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}

type RegisterReferralRequest struct {
	ReferralCode  string `json:"referralCode" validate:"required"`
	WalletAddress string `json:"walletAddress" validate:"required"`
}

func (h *ReferralHandler) GenerateCode(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	code, err := h.Referrals.GenerateReferralCode(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"referralCode": code})
}

func (h *ReferralHandler) GenerateCodeForWallet(c *fiber.Ctx) error {
	var req WalletRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	code, err := h.Referrals.GenerateReferralCodeForWallet(c.UserContext(), req.WalletAddress)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"referralCode": code})
}

func (h *ReferralHandler) ValidateCode(c *fiber.Ctx) error {
	result, err := h.Referrals.ValidateReferralCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

func (h *ReferralHandler) Register(c *fiber.Ctx) error {
	var req RegisterReferralRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	referral, err := h.Referrals.RegisterReferral(c.UserContext(), req.ReferralCode, req.WalletAddress)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  "Referral registered successfully",
		"referral": referral,
	})
}

func (h *ReferralHandler) Mine(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	referrals, err := h.Referrals.ListReferrals(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(referrals)
}

func (h *ReferralHandler) ForWallet(c *fiber.Ctx) error {
	referrals, err := h.Referrals.ListReferralsForWallet(c.UserContext(), c.Params("walletAddress"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(referrals)
}
