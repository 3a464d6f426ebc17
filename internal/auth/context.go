package auth

import (
	"context"
	"slices"
)

// Principal captures the authenticated identity propagated through the request context.
// It is built once per request from verified token claims and never mutated afterwards.
type Principal struct {
	// ID is the stable numeric account identifier (the token subject).
	ID int64
	// Username is the human-readable account name at issuance time.
	Username string
	// Roles lists normalized role labels (e.g. USER, ADMIN). Never empty for an
	// authenticated principal.
	Roles []string
}

// HasRole reports whether the principal carries role.
func (p Principal) HasRole(role string) bool {
	return slices.Contains(p.Roles, role)
}

func (p Principal) clone() Principal {
	p.Roles = slices.Clone(p.Roles)
	return p
}

type principalContextKey struct{}

// WithPrincipal stores the principal on the context for downstream consumers.
// A principal that is already attached wins: the context is returned unchanged.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if _, ok := PrincipalFromContext(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, principalContextKey{}, principal.clone())
}

// PrincipalFromContext retrieves the authenticated principal from the context.
// The second return value is false for anonymous requests.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok {
		return Principal{}, false
	}
	return principal.clone(), true
}

// OptionalPrincipal returns a pointer to the request principal, or nil when anonymous.
// This is the shape Authorize expects.
func OptionalPrincipal(ctx context.Context) *Principal {
	principal, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil
	}
	return &principal
}
