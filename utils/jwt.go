package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/golang-jwt/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	UserID string      `json:"userId"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) GenerateJWT(user *models.User) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *TokenManager) ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Subject returns the user id carried by the token.
func (c *Claims) Subject() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}
