package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	jwtSecret            = []byte("change-me-in-production")
	jwtExpirationMinutes = 60
)

type Claims struct {
	UserID   uuid.UUID `json:"userID"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

func ConfigureJWT(secret string, expirationMinutes int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expirationMinutes > 0 {
		jwtExpirationMinutes = expirationMinutes
	}
}

// TokenTTL is the lifetime applied to newly issued tokens. The session
// cookie max-age must match it.
func TokenTTL() time.Duration {
	return time.Duration(jwtExpirationMinutes) * time.Minute
}

func GenerateToken(userID uuid.UUID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
