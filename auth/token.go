package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload stored inside an issued token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens issues and validates the reconnect tokens handed out on the
// connection frame. The secret comes from configuration; in production it
// should arrive via an environment variable or a secret manager.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokens(secret string, lifetime time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), lifetime: lifetime}
}

// Generate creates a signed HS256 token for a user.
func (t *Tokens) Generate(userID string) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chat-relay",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses a token string and checks its signature and expiration.
func (t *Tokens) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
