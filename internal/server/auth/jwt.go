// Package auth mints and verifies the stateless bearer tokens that bind a
// request to a username.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mpc180222/messagely/internal/common"
)

// Claims includes the standard registered claims plus the principal's
// username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// GenerateToken signs a token for username. A zero validityDuration omits
// the expiry claim, making the token valid for as long as the signing key
// is.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if username == "" {
		return "", common.ErrorValidation
	}

	now := time.Now()
	registered := jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(now),
	}
	if validityDuration != 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: registered,
		Username:         username,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies the signature and returns the embedded
// username. Expired tokens yield common.ErrTokenExpired; anything else
// that fails verification yields common.ErrInvalidToken.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Username, nil
}
