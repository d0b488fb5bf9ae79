// Package jwtauth issues and validates the access/refresh JWT pair the
// Auth Endpoint and Auth Guard use, grounded on the teacher's
// shared/middleware JWTMiddleware but adapted to the base spec's §4.7
// claims shape: a single server secret, tokens discriminated by a
// token_type claim rather than by separate signing secrets.
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims is the JWT payload: {sub, exp, token_type}, per base spec §4.7.
type Claims struct {
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// Manager issues and parses tokens with a single symmetric secret. A
// deployment MUST override Secret with a non-default value (base spec §6).
type Manager struct {
	Secret        string
	AccessExpire  time.Duration
	RefreshExpire time.Duration
}

func NewManager(secret string, accessExpire, refreshExpire time.Duration) *Manager {
	return &Manager{Secret: secret, AccessExpire: accessExpire, RefreshExpire: refreshExpire}
}

func (m *Manager) issue(userID string, tokenType TokenType, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "ssh-terminal-sync",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.Secret))
}

// IssuePair returns a fresh (access, refresh) JWT pair for userID.
func (m *Manager) IssuePair(userID string) (access, refresh string, err error) {
	access, err = m.issue(userID, TokenAccess, m.AccessExpire)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.issue(userID, TokenRefresh, m.RefreshExpire)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Parse validates the signature and expiry and requires the claim's
// token_type to match want, rejecting a refresh token presented as an
// access token or vice versa.
func (m *Manager) Parse(tokenString string, want TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != want {
		return nil, fmt.Errorf("expected token_type %q, got %q", want, claims.TokenType)
	}
	return claims, nil
}
