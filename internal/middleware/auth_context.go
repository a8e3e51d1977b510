package middleware

import (
	"net/http"
	"strings"

	"pet-appointment-scheduling/internal/ports/auth"
	"pet-appointment-scheduling/internal/ports/session"
)

const (
	HeaderDebugUserID   = "X-Debug-User-ID"
	HeaderDebugRole     = "X-Debug-Role"
	HeaderDebugClinicID = "X-Debug-Clinic-ID"
)

// AuthContext:
// - verifier == nil => modo dev: X-Debug-User-ID (+ X-Debug-Role / X-Debug-Clinic-ID).
// - verifier != nil => Bearer token verificado.
// Sin identidad el request sigue igual; cada handler decide 401/403.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				id := session.Identity{
					UserID:   uid,
					Role:     session.ParseRole(r.Header.Get(HeaderDebugRole)),
					ClinicID: strings.TrimSpace(r.Header.Get(HeaderDebugClinicID)),
				}
				next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), id)))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// no cortamos acá; el handler decide
				next.ServeHTTP(w, r)
				return
			}

			id := session.Identity{
				UserID:   strings.TrimSpace(claims.UserID),
				Role:     session.ParseRole(claims.Role),
				ClinicID: strings.TrimSpace(claims.ClinicID),
				Token:    token,
			}
			next.ServeHTTP(w, r.WithContext(session.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireIdentity corta con 401 si no hay usuario.
func RequireIdentity(w http.ResponseWriter, r *http.Request) (session.Identity, bool) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return session.Identity{}, false
	}
	return id, true
}

// RequireClinicStaff exige rol clinic con clínica asignada.
func RequireClinicStaff(w http.ResponseWriter, r *http.Request) (session.Identity, bool) {
	id, ok := RequireIdentity(w, r)
	if !ok {
		return session.Identity{}, false
	}
	if id.Role != session.RoleClinic || id.ClinicID == "" {
		http.Error(w, "forbidden", http.StatusForbidden)
		return session.Identity{}, false
	}
	return id, true
}

func bearerToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
