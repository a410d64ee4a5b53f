package jwthelper

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID    uint   `json:"uid"`
	Role      string `json:"role"`
	UserAgent string `json:"ua,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs an HS256 token for the user. Every token gets a fresh
// jti so it can be revoked on its own.
func GenerateToken(key []byte, userID uint, role, userAgent string, now time.Time, ttl time.Duration) (string, Claims, error) {
	claims := Claims{
		UserID:    userID,
		Role:      role,
		UserAgent: userAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", Claims{}, fmt.Errorf("token.SignedString -> %w", err)
	}

	return signed, claims, nil
}

func ParseToken(key []byte, tokenString string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" || claims.UserID == 0 {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
