// Package auth issues and verifies the HS256 JWTs handed out by the REST
// layer after a successful login.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ilepins/userauth/internal/shared"
)

// Claims carries the registered claims plus the authenticated username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// GenerateToken signs a token for the given username with the provided
// secret, expiring after validityDuration.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies the signature and expiry and returns the
// username claim. Any parse or validation failure maps to
// shared.ErrInvalidToken; the caller does not need to distinguish.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", shared.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return "", shared.ErrInvalidToken
	}

	return claims.Username, nil
}
