package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the signed-in directory identity through request
// context. SessionID keys the server-side token cache; tokens themselves
// never ride the context or the session cookie.
type ContextPrincipal struct {
	SessionID   string
	Subject     string
	DisplayName string
	Principal   string // userPrincipalName
	Consumer    bool   // personal (consumer) account, no organization data
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
