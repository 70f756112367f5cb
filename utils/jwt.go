package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Peran perangkat
const (
	RoleKitchen = "kitchen"
	RoleTable   = "table"
	RoleClient  = "client"
)

type DeviceClaims struct {
	Role      string `json:"role"`
	TableCode string `json:"table_code,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates device tokens used by the socket endpoints.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (ti *TokenIssuer) GenerateToken(subject, role, tableCode string) (string, error) {
	claims := &DeviceClaims{
		Role:      role,
		TableCode: tableCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "dinein-lifecycle",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

func (ti *TokenIssuer) ParseToken(tokenString string) (*DeviceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DeviceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*DeviceClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
