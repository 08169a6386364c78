package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

type Claims struct {
	UserID uuid.UUID
	Role   string
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *TokenService) Secret() []byte {
	return s.secret
}

func (s *TokenService) Issue(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"iat":     s.now().Unix(),
		"exp":     s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature and expiry. Every failure is ErrUnauthenticated.
func (s *TokenService) Parse(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return ClaimsFromToken(token)
}

func ClaimsFromToken(token *jwt.Token) (*Claims, error) {
	if token == nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	rawID, _ := mc["user_id"].(string)
	role, _ := mc["role"].(string)
	id, err := uuid.Parse(rawID)
	if err != nil || role == "" {
		return nil, errors.Join(ErrUnauthenticated, err)
	}
	return &Claims{UserID: id, Role: role}, nil
}
