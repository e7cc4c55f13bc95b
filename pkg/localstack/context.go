package localstack

import "context"

type contextKey struct{}

// NewContext returns a context carrying l, for helpers that need the
// running instance without it being passed explicitly.
func NewContext(ctx context.Context, l *Localstack) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the instance stored by NewContext.
func FromContext(ctx context.Context) (*Localstack, bool) {
	l, ok := ctx.Value(contextKey{}).(*Localstack)
	return l, ok && l != nil
}
