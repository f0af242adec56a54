package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labcatalog/internal/domain"
)

// RoleAdmin is the only role with write access to the catalog.
const RoleAdmin = "admin"

// ErrUnauthenticated no verified session on the request
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal verified caller identity
type Principal struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (p Principal) IsAdmin() bool {
	return strings.EqualFold(p.Role, RoleAdmin)
}

// System principal used by the admin CLI.
var System = Principal{Email: "system@localhost", Role: RoleAdmin}

type principalKey struct{}

// WithPrincipal stores p on ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal set by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// RequireUser any authenticated caller.
func RequireUser(ctx context.Context) (Principal, error) {
	p, ok := FromContext(ctx)
	if !ok || p.Email == "" {
		return Principal{}, ErrUnauthenticated
	}
	return p, nil
}

// RequireAdmin authenticated caller with the admin role.
func RequireAdmin(ctx context.Context, action string) (Principal, error) {
	p, err := RequireUser(ctx)
	if err != nil {
		return Principal{}, err
	}
	if !p.IsAdmin() {
		return Principal{}, fmt.Errorf("%w: %s requires admin", domain.ErrPermissionDenied, action)
	}
	return p, nil
}
