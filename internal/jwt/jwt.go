// Package jwt signs and verifies the compact HS256 session tokens issued
// on login. Access and refresh tokens share one random token identifier
// (jti) so a single revocation record covers both.
package jwt

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Claims carried by every issued token.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"`
	gojwt.RegisteredClaims
}

// Subject returns the user id as an ObjectID.
func (c *Claims) Subject() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.UserID)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid subject id: %w", err)
	}
	return id, nil
}

// Generator mints and verifies tokens with a shared HMAC secret.
type Generator struct {
	secret []byte
}

// NewGenerator creates a Generator for the given signing secret.
func NewGenerator(secret string) *Generator {
	return &Generator{secret: []byte(secret)}
}

// Sign issues a token for the user with the given ttl and token identifier.
func (g *Generator) Sign(userID, role, jwtID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        jwtID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses the token, checking signature and expiry.
func (g *Generator) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, func(t *gojwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
