// Package jwtauth implementa auth.AuthVerifier con tokens HMAC firmados por el IdP.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-appointment-scheduling/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNotConfigured = errors.New("jwt secret not configured")
	ErrTokenEmpty    = errors.New("token is empty")
	ErrMissingUser   = errors.New("token missing subject")
)

// tokenClaims es el payload esperado: sub + role (+ clinic_id para staff).
type tokenClaims struct {
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
	ClinicID string `json:"clinic_id,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	var tc tokenClaims
	if _, err := v.parser.ParseWithClaims(token, &tc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}); err != nil {
		return auth.Claims{}, fmt.Errorf("jwt verify: %w", err)
	}

	userID := strings.TrimSpace(tc.Subject)
	if userID == "" {
		return auth.Claims{}, ErrMissingUser
	}

	return auth.Claims{
		UserID:   userID,
		Email:    strings.TrimSpace(tc.Email),
		Role:     strings.TrimSpace(tc.Role),
		ClinicID: strings.TrimSpace(tc.ClinicID),
	}, nil
}

// Issue firma un token para c. Lo usan los tests y el seed de desarrollo.
func (v *Verifier) Issue(c auth.Claims, ttl time.Duration, now time.Time) (string, error) {
	tc := tokenClaims{
		Email:    c.Email,
		Role:     c.Role,
		ClinicID: c.ClinicID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, tc).SignedString(v.secret)
}
