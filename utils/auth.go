package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey is loaded from JWT_SECRET at startup.
var JwtKey = []byte("your_secret_key")

// Claims represents the JWT claims attached to every authenticated
// request.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT issues a 24h token for a user.
func GenerateJWT(email, role string) (string, error) {
	expirationTime := time.Now().Add(24 * time.Hour)
	claims := &Claims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expirationTime.Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}
