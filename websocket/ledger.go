package websocket

import (
	"errors"

	"github.com/TimmyIsANerd/chamswap/middleware"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// TokenParser resolves a bearer token to its claims.
type TokenParser interface {
	Parse(raw string) (*services.Claims, error)
}

type frameConn interface {
	Conn
	ReadJSON(v interface{}) error
}

type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

var errNotAdmin = errors.New("admin access required")

// authenticate reads the first frame, which must carry an admin token.
func authenticate(c frameConn, tokens TokenParser) (*services.Claims, error) {
	var msg authMessage
	if err := c.ReadJSON(&msg); err != nil {
		return nil, err
	}
	if msg.Type != "auth" {
		return nil, errors.New("first message must be an auth message")
	}
	claims, err := tokens.Parse(msg.Token)
	if err != nil {
		return nil, err
	}
	if !middleware.Authorize(claims.Role, models.RoleAdmin, models.RoleSuperAdmin) {
		return nil, errNotAdmin
	}
	return claims, nil
}

// UpgradeRequired rejects plain HTTP requests on websocket routes.
func UpgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

// admit confirms the subscription and then gives the connection to the hub, whose
// writer is the only one allowed to write to it from then on.
func admit(hub *Hub, c Conn) error {
	if err := c.WriteJSON(fiber.Map{"type": "ready"}); err != nil {
		return err
	}
	hub.Register(c)
	return nil
}

func ServeLedger(hub *Hub, tokens TokenParser) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		claims, err := authenticate(c, tokens)
		if err != nil {
			log.WithError(err).Warn("Ledger feed auth failed")
			_ = c.WriteJSON(fiber.Map{"type": "error", "message": "Unauthorized"})
			_ = c.Close()
			return
		}

		if err := admit(hub, c); err != nil {
			log.WithError(err).Warn("Ledger feed handshake failed")
			_ = c.Close()
			return
		}
		defer hub.Unregister(c)
		log.WithField("user_id", claims.UserID).Info("Ledger feed client authenticated")

		// the feed is one-way; reading only detects disconnects
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.WithError(err).Warn("Ledger feed read error")
				}
				return
			}
		}
	})
}
