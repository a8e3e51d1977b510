package auth

import "context"

// Claims representa la información extraída del token.
type Claims struct {
	UserID   string
	Email    string
	Role     string // owner | clinic
	ClinicID string
}

// AuthVerifier valida un bearer token y devuelve sus claims.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
