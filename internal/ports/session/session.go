package session

import (
	"context"
	"strings"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleClinic Role = "clinic"
)

func ParseRole(s string) Role {
	if strings.EqualFold(strings.TrimSpace(s), string(RoleClinic)) {
		return RoleClinic
	}
	return RoleOwner
}

// Identity es el usuario activo de la sesión.
type Identity struct {
	UserID   string
	Role     Role
	ClinicID string // solo para RoleClinic

	// Token crudo (si vino Bearer); los adapters REST lo propagan.
	Token string
}

func (i Identity) Valid() bool {
	return strings.TrimSpace(i.UserID) != ""
}

// Provider es la capability de sesión que recibe el coordinador al construirse.
// ok=false => no hay usuario y no se debe iniciar ningún fetch.
type Provider interface {
	Current(ctx context.Context) (Identity, bool)
}

type ProviderFunc func(ctx context.Context) (Identity, bool)

func (f ProviderFunc) Current(ctx context.Context) (Identity, bool) { return f(ctx) }

// Static devuelve siempre la misma identidad.
func Static(id Identity) Provider {
	return ProviderFunc(func(context.Context) (Identity, bool) {
		return id, id.Valid()
	})
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || !id.Valid() {
		return Identity{}, false
	}
	return id, true
}

// FromRequestContext lee la identidad que dejó el middleware de auth.
var FromRequestContext Provider = ProviderFunc(FromContext)
