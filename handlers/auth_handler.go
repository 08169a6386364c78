package handlers

import (
	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type CreateAdminRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	token, user, err := h.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) SetPassword(c *fiber.Ctx) error {
	var req SetPasswordRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	if err := h.Auth.SetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password set successfully"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	user, err := h.Auth.Me(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext(), c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

func (h *AuthHandler) CreateAdmin(c *fiber.Ctx) error {
	var req CreateAdminRequest
	if err := parseRequest(c, &req); err != nil {
		return badRequest(c, err)
	}

	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	admin, err := h.Auth.CreateAdmin(c.UserContext(), claims.UserID, req.Email, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Admin created successfully. Password setup email sent.",
		"user":    admin,
	})
}

func (h *AuthHandler) RemoveAdmin(c *fiber.Ctx) error {
	adminID, err := uuid.Parse(c.Params("adminId"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid admin ID")
	}

	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return respondError(c, services.ErrUnauthenticated)
	}

	if err := h.Auth.RemoveAdmin(c.UserContext(), claims.UserID, adminID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Admin removed successfully"})
}
