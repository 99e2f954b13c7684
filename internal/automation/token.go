package automation

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 2 * time.Minute

// NewToken mints a short-lived HS256 bearer token for one boundary call.
// The bot signs with the shared boundary secret; the server verifies.
func NewToken(secret string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "telegram-bot",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign boundary token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a bearer token against the shared boundary secret.
func VerifyToken(secret, raw string) error {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return fmt.Errorf("invalid boundary token: %w", err)
	}
	if !token.Valid {
		return fmt.Errorf("invalid boundary token")
	}
	return nil
}
