package jwtauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-appointment-scheduling/internal/ports/auth"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifier_RoundTrip(t *testing.T) {
	v, err := NewVerifier("s3cret")
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}

	tok, err := v.Issue(auth.Claims{UserID: "staff-1", Role: "clinic", ClinicID: "C1"}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if c.UserID != "staff-1" || c.Role != "clinic" || c.ClinicID != "C1" {
		t.Fatalf("unexpected claims: %#v", c)
	}
}

func TestVerifier_Rejections(t *testing.T) {
	v, _ := NewVerifier("s3cret")
	other, _ := NewVerifier("other")

	expired, _ := v.Issue(auth.Claims{UserID: "u1"}, time.Minute, time.Now().Add(-time.Hour))
	foreign, _ := other.Issue(auth.Claims{UserID: "u1"}, time.Hour, time.Now())
	noSubject, _ := v.Issue(auth.Claims{}, time.Hour, time.Now())
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("s3cret"))

	cases := map[string]string{
		"expired":        expired,
		"wrong secret":   foreign,
		"missing sub":    noSubject,
		"missing exp":    noExpiry,
		"garbage":        "not-a-jwt",
		"unsigned token": "eyJhbGciOiJub25lIn0.eyJzdWIiOiJ1MSJ9.",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(context.Background(), tok); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}

	if _, err := v.Verify(context.Background(), " "); !errors.Is(err, ErrTokenEmpty) {
		t.Fatalf("expected ErrTokenEmpty, got %v", err)
	}
}

func TestNewVerifier_RequiresSecret(t *testing.T) {
	if _, err := NewVerifier(""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
