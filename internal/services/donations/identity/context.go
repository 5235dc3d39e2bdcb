package identity

import "context"

type principalContextKey struct{}

// WithPrincipal stores the resolved principal in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// FromContext returns the principal stored in context, or the anonymous
// principal when none was resolved.
func FromContext(ctx context.Context) Principal {
	if ctx == nil {
		return Anonymous()
	}
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok {
		return Anonymous()
	}
	return principal
}
