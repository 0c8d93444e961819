// Package auth authenticates API callers via bearer tokens and answers
// authorization questions before a request reaches the invoice core.
package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Actions checked against token scopes.
const (
	ActionInvoicesRead  = "invoices:read"
	ActionInvoicesWrite = "invoices:write"
	// ScopeAll grants every action.
	ScopeAll = "*"
)

// Principal is an authenticated caller.
type Principal struct {
	TokenID uuid.UUID
	Subject string
	Scopes  []string
}

// Can reports whether the principal may perform an action.
func (p *Principal) Can(action string) bool {
	if p == nil {
		return false
	}
	for _, scope := range p.Scopes {
		if scope == ScopeAll || strings.EqualFold(scope, action) {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
