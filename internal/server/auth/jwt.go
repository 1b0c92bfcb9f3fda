// Package auth issues and verifies session tokens and validates Google
// ID tokens against the tokeninfo endpoint.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medvoice/medvoice/internal/common"
)

// Claims carries the session identity: the registered claims plus the
// user's email and display name so the frontend can render the session
// without an extra round trip.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// GenerateToken signs an HS256 session token for the given user identity.
func GenerateToken(userID, email, displayName string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:       email,
		DisplayName: displayName,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature and expiry of a session token and
// returns its claims. Any failure maps to common.ErrorInvalidToken so the
// HTTP layer answers a uniform 401.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey, nil
	})
	if err != nil {
		return nil, common.ErrorInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrorInvalidToken
	}

	return claims, nil
}
