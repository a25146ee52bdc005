// Package auth provides password hashing and bearer token issuance for
// Tallybook user accounts.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims are the fields carried by a Tallybook bearer token.
type Claims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// DefaultTokenTTL is applied when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

// NewTokenManager creates a TokenManager with the given signing secret.
// A zero ttl falls back to DefaultTokenTTL.
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{secret: secret, ttl: ttl}
}

// Issue signs a token for the given user and role.
func (tm *TokenManager) Issue(userID, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(tm.ttl).Unix(),
	})

	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: verify token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("auth: invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("auth: invalid token claims")
	}

	claims := &Claims{}
	if sub, ok := mapClaims["sub"].(string); ok {
		claims.UserID = sub
	}
	if role, ok := mapClaims["role"].(string); ok {
		claims.Role = role
	}
	if claims.UserID == "" {
		return nil, errors.New("auth: token missing subject")
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
