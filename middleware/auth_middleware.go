package middleware

import (
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const (
	claimsKey = "claims"
	tokenKey  = "user"
)

// Protected verifies the bearer token and stores its claims for later handlers.
func Protected(secret []byte) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     secret,
		SigningMethod:  "HS256",
		ContextKey:     tokenKey,
		ErrorHandler:   jwtError,
		SuccessHandler: storeClaims,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusUnauthorized).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT"})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT"})
}

func storeClaims(c *fiber.Ctx) error {
	token, _ := c.Locals(tokenKey).(*jwt.Token)
	claims, err := services.ClaimsFromToken(token)
	if err != nil {
		return jwtError(c, err)
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

// CurrentClaims returns the claims stored by Protected, or nil on public routes.
func CurrentClaims(c *fiber.Ctx) *services.Claims {
	claims, _ := c.Locals(claimsKey).(*services.Claims)
	return claims
}

// Authorize reports whether role is one of allowed.
func Authorize(role string, allowed ...string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// RolesRequired must run after Protected.
func RolesRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := CurrentClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"status": "error", "message": "Authentication required"})
		}
		if !Authorize(claims.Role, roles...) {
			return c.Status(fiber.StatusForbidden).
				JSON(fiber.Map{"status": "error", "message": "Forbidden: insufficient role"})
		}
		return c.Next()
	}
}
