package main

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 24 * time.Hour

// generateToken issues an HS256 bearer token for a logged-in user. Nothing in
// the system consumes it yet; issuance is a standalone capability.
func generateToken(u *User, secret string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"username":   u.Username,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"exp":        now.Add(tokenTTL).Unix(),
		"iat":        now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
