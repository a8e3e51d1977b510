package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-appointment-scheduling/internal/ports/auth"
	"pet-appointment-scheduling/internal/ports/session"
)

type fakeVerifier struct {
	claims auth.Claims
	err    error
}

func (f fakeVerifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if token != "good" {
		return auth.Claims{}, errors.New("bad token")
	}
	return f.claims, f.err
}

func identityOf(t *testing.T, mw func(http.Handler) http.Handler, req *http.Request) (session.Identity, bool) {
	t.Helper()

	var (
		got session.Identity
		ok  bool
	)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = session.FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestAuthContext_DevHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDebugUserID, "staff-1")
	req.Header.Set(HeaderDebugRole, "clinic")
	req.Header.Set(HeaderDebugClinicID, "c1")

	id, ok := identityOf(t, AuthContext(nil), req)
	if !ok || id.UserID != "staff-1" || id.Role != session.RoleClinic || id.ClinicID != "c1" {
		t.Fatalf("unexpected identity %#v ok=%v", id, ok)
	}
}

func TestAuthContext_Bearer(t *testing.T) {
	v := fakeVerifier{claims: auth.Claims{UserID: "owner-1", Role: "owner"}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	id, ok := identityOf(t, AuthContext(v), req)
	if !ok || id.UserID != "owner-1" || id.Token != "good" {
		t.Fatalf("unexpected identity %#v ok=%v", id, ok)
	}

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Bearer nope")
	if _, ok := identityOf(t, AuthContext(v), bad); ok {
		t.Fatalf("invalid token must not produce identity")
	}

	// el header de debug se ignora con verifier
	dbg := httptest.NewRequest(http.MethodGet, "/", nil)
	dbg.Header.Set(HeaderDebugUserID, "x")
	if _, ok := identityOf(t, AuthContext(v), dbg); ok {
		t.Fatalf("debug header must be ignored when verifier is set")
	}
}

func TestRequireClinicStaff(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(session.WithIdentity(req.Context(), session.Identity{UserID: "o", Role: session.RoleOwner}))
	if _, ok := RequireClinicStaff(rec, req); ok || rec.Code != http.StatusForbidden {
		t.Fatalf("owner must be forbidden, got %d", rec.Code)
	}
}
